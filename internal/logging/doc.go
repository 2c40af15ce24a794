// Package logging builds the shared slog logger used by every pipeline
// stage. Console output is a compact single-line format; the json format is
// intended for log files and machine consumption.
package logging
