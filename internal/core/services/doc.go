// Package services implements the driving port interfaces.
// Services contain the question-answering pipeline (normalise, retrieve,
// assemble, generate) and orchestrate calls to driven ports (adapters).
//
// Services are pure Go and depend only on domain, ports and vectorindex.
package services
