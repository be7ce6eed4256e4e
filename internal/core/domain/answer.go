package domain

import "time"

// Generation is the output of the answer generator.
type Generation struct {
	// Text is the answer text.
	Text string

	// Grounded is false when the context did not contain the answer.
	Grounded bool
}

// AnswerRecord is the result of one question. It is created per query and
// not retained by the engine.
type AnswerRecord struct {
	// Question is the trimmed question that was asked.
	Question string `json:"question" yaml:"question"`

	// Answer is the generated answer text.
	Answer string `json:"answer" yaml:"answer"`

	// Grounded reports whether the answer was found in the sources.
	Grounded bool `json:"grounded" yaml:"grounded"`

	// Sources are the units placed in the context, in rank order.
	Sources []Source `json:"sources" yaml:"sources"`

	// Model names the language model that produced the answer.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// Elapsed is the wall time spent answering.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Source is a unit used as grounding, with its retrieval score.
type Source struct {
	ID       string            `json:"id" yaml:"id"`
	Content  string            `json:"content" yaml:"content"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Score    float64           `json:"score" yaml:"score"`
}

// SourcesFrom converts ranked results into answer sources.
func SourcesFrom(results []ScoredUnit) []Source {
	sources := make([]Source, len(results))
	for i, r := range results {
		u := r.Unit.Clone()
		sources[i] = Source{ID: u.ID, Content: u.Content, Metadata: u.Metadata, Score: r.Score}
	}
	return sources
}

// SourceIDs returns the IDs of the record's sources, in order.
func (a *AnswerRecord) SourceIDs() []string {
	ids := make([]string, len(a.Sources))
	for i, s := range a.Sources {
		ids[i] = s.ID
	}
	return ids
}
