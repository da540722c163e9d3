// Package display renders query results, cache statistics and fetch
// progress for the terminal.
package display
