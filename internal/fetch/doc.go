// Package fetch orchestrates one raw-review fetch session: sequential
// cursor-paged requests, loop detection, and append-only corpus persistence.
package fetch
