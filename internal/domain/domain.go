// Package domain holds the core value types and contracts shared between
// layers: profiles, rules, match results, embeddings and sentinel errors.
package domain

// KeyPrefix namespaces every storage key written by matchdex.
const KeyPrefix = "matchdex:"
