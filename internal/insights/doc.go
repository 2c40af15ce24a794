// Package insights buckets confident extraction tasks into dev-focus
// categories and renders the developer report.
package insights
