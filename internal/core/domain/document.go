package domain

import "maps"

// Well-known TextUnit metadata keys.
const (
	MetaSubject  = "subject"
	MetaFrom     = "from"
	MetaReceived = "received"
	MetaSource   = "source"
	// MetaItem is the zero-based position of the raw item the unit came from.
	MetaItem = "item"
	// MetaChunk is the zero-based chunk position when a raw item was split.
	MetaChunk = "chunk"
)

// TextUnit is an addressable piece of message text ready for embedding.
// Content is never empty once normalised. Units are immutable once indexed.
type TextUnit struct {
	// ID is the unique identifier for the unit.
	ID string

	// Content is the normalised text.
	Content string

	// Metadata holds provenance such as sender and timestamp.
	Metadata map[string]string
}

// Clone returns a copy of the unit that shares no mutable state.
func (u TextUnit) Clone() TextUnit {
	u.Metadata = maps.Clone(u.Metadata)
	return u
}

// Title returns a short human-readable label for the unit.
func (u TextUnit) Title() string {
	if s := u.Metadata[MetaSubject]; s != "" {
		return s
	}
	const maxLen = 60
	r := []rune(u.Content)
	if len(r) > maxLen {
		return string(r[:maxLen]) + "..."
	}
	return string(r)
}

// Vector is an embedding. Its length is constant across one corpus.
type Vector []float32

// IndexEntry pairs a unit with its embedding.
// Entries are owned exclusively by the vector index.
type IndexEntry struct {
	Unit   TextUnit
	Vector Vector
}

// ScoredUnit is one retrieval hit.
type ScoredUnit struct {
	// Unit is the matched unit.
	Unit TextUnit

	// Score is the cosine similarity between the query and the unit.
	Score float64
}

