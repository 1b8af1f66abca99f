// Package report writes the summary of a cleaning run.
//
// Three formats are available through New:
//   - text: a plain summary for the terminal
//   - json: the run, its parameters and row counts for tool integration
//   - markdown: tables and a mermaid pie chart of kept and dropped rows
//
// Reports are optional. The command writes one only when a format other
// than "none" is configured.
package report
