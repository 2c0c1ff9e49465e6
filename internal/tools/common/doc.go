// Package common provides helpers shared by the MCP tool packages: argument
// extraction and the instrumentation wrapper every handler is registered with.
package common
