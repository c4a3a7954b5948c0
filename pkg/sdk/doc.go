// Package matchdex is the embedded Go SDK: it wires the matching pipeline
// directly over a Redis store, without going through the HTTP API. Intended
// for batch jobs and orchestration code living in the same trust domain as
// the store.
package matchdex
