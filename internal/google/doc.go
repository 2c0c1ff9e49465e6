// Package google holds the OAuth2 plumbing shared by the Google API clients.
//
// Token acquisition happens outside this module. Tokens are stored per account
// as JSON files and loaded through the TokenProvider interface, which lets the
// server swap the file store for another source.
package google
