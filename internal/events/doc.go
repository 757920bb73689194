// Package events defines the change descriptors housekeep reports for every
// issue it touches.
//
// A change is a key=value pair such as "state=closed" or "label_add=bug".
// The ordered list of changes is the externally visible result of processing
// an issue: the CLI prints it, the MCP server returns it and tests assert on
// it.
//
// Besides the descriptor itself, each change has a human-readable message
// rendered from a text/template with the sprig functions
// (MessageTemplateEngine). The Recorder collects changes for one issue and
// logs those messages as they happen.
//
// Usage:
//
//	rec := events.NewRecorder(issue.IID, issue.Title)
//	rec.Record(events.KeyState, "closed")
//	rec.Record(events.KeyLabelAdd, "confidential")
//
//	rec.Changes() // [{state closed} {label_add confidential}]
package events
