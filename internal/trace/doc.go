// Package trace records where naggy spends its time. Spans are opened around
// CLI commands, reparses and the stages inside a reparse, so a slow or stuck
// analysis can be located without a profiler.
package trace
