// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: Maps text to fixed-dimension vectors
//   - LLMService: Completes the answer prompt
//   - ConfigStore: Application configuration
//   - PromptStore: Prompt templates
//
// # Optional Interfaces
//
// These can be nil and the application degrades gracefully:
//
//   - IndexStore: Persists built corpora between runs. Without it,
//     corpora live only for the lifetime of the process.
//   - MessageSource: Fetches one day of messages. Without it, only
//     caller-supplied items can be ingested.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
