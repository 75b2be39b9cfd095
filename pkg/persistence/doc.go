// Package persistence stores the console state (mode and maximum address)
// across restarts as a small JSON document.
package persistence
