// Package model defines the state carried through a cleaning run.
//
// A CleaningRun is created from the invocation parameters, filled in by the
// pipeline steps as they execute, and finally handed to the report writers.
// It lives in its own package so that pipeline and report can share it
// without importing each other.
package model
