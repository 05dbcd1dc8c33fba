//go:build !debug

package prioritypool

const abortOnMisuse = false
