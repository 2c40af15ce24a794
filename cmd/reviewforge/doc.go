// Command reviewforge drives the review pipeline: fetch raw reviews, score
// sentiment, run structured extraction through a local model worker, and
// aggregate the confident tasks into a developer report.
package main
