// Package ui provides helpers for formatting human-readable console output.
//
// ConsoleCommandEventLogger turns git and repo lifecycle events into short
// sentences while the structured fields keep flowing through the diagnostic
// logger.
package ui
