// Package orchestrator runs every rule of housekeep against issues.
//
// The orchestrator owns the per-issue processing order and the run loop
// around it. For one issue it applies, in this order:
//
//  1. Obsolete → close
//  2. Label reconciliation (internal/labels)
//  3. Lock on close
//  4. Confidential policy
//  5. Assign closer
//  6. Due milestone
//  7. Ledger engine (internal/ledger)
//  8. Past-due notice
//
// Field rules (1 and 3 to 6) only run on issues that have not been updated
// for Config.MinIdle, so housekeep does not fight a human who is editing the
// issue right now.
//
// # Reports
//
// Every applied change is recorded as an events.Change. The ordered list of
// changes is the per-issue Report:
//
//	state=closed
//	label_add=confidential
//	label_remove=public
//	discussion_locked=true
//	confidential=true
//
// # Error Handling
//
// A label rule conflict only aborts the label step; the remaining steps still
// run and the conflict is returned together with the report. Any tracker
// error stops processing of the issue at once, and the report holds the
// changes applied up to that point. Run keeps going with the next issue and
// returns ErrIssuesFailed when at least one issue failed.
//
// # Cancellation
//
// Run checks the context between issues only. An issue that has started is
// always processed to the end.
//
// # Filtering
//
// Besides the tracker-side IssueFilter, Run accepts a "where" expression
// (expr-lang) evaluated per issue:
//
//	state == "opened" && "bug" in labels && idleHours > 48
package orchestrator
