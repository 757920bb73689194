// Package staterules implements the per-field issue rules: closing obsolete
// issues, locking and hiding closed ones, assigning the closer, attaching a
// milestone derived from the due date and posting past-due notices.
//
// Every rule follows the same shape: check its precondition against the
// current issue, and only when the desired value differs from the actual one
// issue a single tracker mutation and report a single events.Change. Rules
// return the issue as the tracker reports it after the mutation so the next
// rule sees fresh state.
package staterules
