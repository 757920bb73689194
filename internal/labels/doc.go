// Package labels converges an issue's labels to the state demanded by the
// configured label rules.
//
// Reconciliation runs in passes. Each pass computes the labels to add and
// remove from the closed-label list, the label groups and the label
// categories, applies the net difference in a single tracker call and starts
// over, because a label added by one rule can change what another rule
// wants. A label is never touched twice within one call, which bounds the
// number of passes by the number of labels the rules reference.
//
// Rules that ask for the same label to be added and removed in one pass are
// a configuration problem; Reconcile returns a *ConflictError for them and
// leaves the issue untouched for that pass.
package labels
