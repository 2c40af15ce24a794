// Package steam implements the storefront appreviews HTTP client used by the
// fetch stage. One FetchPage call covers the full retry budget for a single
// page; pagination policy lives in the fetch package.
package steam
