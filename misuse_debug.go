//go:build debug

package prioritypool

// abortOnMisuse turns structural misuse, such as a self-join, into a panic.
const abortOnMisuse = true
