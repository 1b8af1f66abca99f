// Package pipeline runs a cleaning run as a sequence of steps.
//
// Each stage of the run (fetch, read_csv, price_range, drop_missing,
// save_csv, publish) is a Step that receives the run state and updates it.
// The Pipeline executes the steps in order, logs each one, and stops at the
// first error, so a run either publishes its output or publishes nothing.
//
// NewCleaningPipeline assembles the standard steps; Run creates a run and
// executes it in one call.
package pipeline
