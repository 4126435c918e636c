// Package manifest retrieves a repo-tool manifest into a scratch checkout and
// decodes its project list into Project records.
package manifest
