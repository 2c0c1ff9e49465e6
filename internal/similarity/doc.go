// Package similarity ranks candidate calendar events against free text using
// TF-IDF weighted cosine similarity.
//
// The scores are only meaningful relative to each other within one call: they
// bound the number of events handed to the semantic ranking step and are
// never used as a confidence value on their own.
package similarity
