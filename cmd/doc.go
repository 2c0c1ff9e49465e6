// Package cmd implements the command-line interface for calresolve.
//
// This package provides the following commands:
//   - serve: Start the MCP server exposing the calendar resolution tools
//   - resolve: Resolve a single request from the command line
//   - token import: Store a Google OAuth token for an account
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
package cmd
