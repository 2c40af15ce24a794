// Package sentiment scores raw review text with an embedded valence lexicon
// and writes the tabular results consumed by the extraction stage.
package sentiment
