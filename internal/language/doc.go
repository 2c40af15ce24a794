// Package language maps ISO 639-1 codes and common language words to the
// values the storefront reviews API expects in its language parameter.
package language
