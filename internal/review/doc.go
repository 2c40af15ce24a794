// Package review defines the raw review record and the newline-delimited
// JSON corpus format shared between the fetch and analysis stages.
package review
