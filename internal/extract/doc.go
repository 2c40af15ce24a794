// Package extract dispatches review texts to a local model worker with
// bounded parallelism and repairs each worker reply into exactly one valid
// JSON line of the structured corpus.
package extract
