// Package vectorindex holds per-session corpora of embedded text units and
// answers nearest-neighbour queries against them.
//
// A corpus is built in one step by Index.Build and exposed as an immutable
// *Handle. Handles are safe for concurrent searches without locking. A new
// build for the same session replaces the previous handle wholesale; nothing
// is merged.
//
// # Import Rules
//
//   - Can Import: domain, ports/driven, logger
//   - Cannot Import: Any adapter package
package vectorindex
