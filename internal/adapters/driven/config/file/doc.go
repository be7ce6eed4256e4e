// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the mailqa home directory (~/.mailqa).
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: user-editable prompt templates
//   - TokenStore: JSON-based OAuth token cache
package file
