package domain

import "time"

// DefaultSession is the session name used when the caller names none.
const DefaultSession = "default"

// SessionInfo describes one persisted corpus.
type SessionInfo struct {
	// Name is the logical session name.
	Name string

	// IndexID identifies the build that produced the corpus.
	IndexID string

	// Model is the embedding model used to build it.
	Model string

	// Dimensions is the vector size.
	Dimensions int

	// Units is the number of indexed units.
	Units int

	// BuiltAt is when the corpus was built.
	BuiltAt time.Time
}

// IngestReport summarises one ingestion.
type IngestReport struct {
	// Session is the session that was rebuilt.
	Session string

	// Source names the message source, empty for caller-supplied items.
	Source string

	// Day is the ingested day in YYYY-MM-DD form, empty for caller-supplied items.
	Day string

	// Fetched is the number of raw items received.
	Fetched int

	// Units is the number of units indexed.
	Units int

	// Elapsed is the wall time of the ingestion.
	Elapsed time.Duration
}

// Empty reports whether nothing was ingested.
func (r IngestReport) Empty() bool {
	return r.Units == 0
}
