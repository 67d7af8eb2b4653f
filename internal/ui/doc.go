// Package ui provides styled terminal output for the formwizard CLI.
//
// Unlike the interactive TUI in internal/wizard/tui, these components follow
// a "print once" pattern: they render boxes and step lists to a writer and
// never read keyboard input (apart from the line-based Confirm prompt).
//
// # Components
//
//   - Header: command banner with the operation name and its parameters
//   - Progress: one line per wizard group plus a progress bar
//   - Result: success, failure and warning boxes
//   - Printer: writes the above to an io.Writer at the terminal width
//
// # Logging Integration
//
// Zap logging is silent unless FORMWIZARD_LOG_LEVEL (or --log-level) is set,
// so these components own stdout during normal runs.
package ui
