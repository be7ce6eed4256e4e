// Package domain defines the core entities of the mailqa question-answering
// engine.
//
// This package is the innermost layer of the hexagonal architecture.
// It has NO external dependencies and defines the fundamental types:
//
//   - TextUnit: an addressable piece of message text ready for embedding
//   - IndexEntry: a TextUnit paired with its embedding vector
//   - ScoredUnit: one ranked retrieval hit
//   - AnswerRecord: an answer together with the units that grounded it
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
