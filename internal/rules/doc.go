// Package rules parses the declarative label rules housekeep applies to issues.
//
// Two rule kinds are configured as plain strings:
//
// Label groups list mutually exclusive labels. At most one of them may stay
// on an issue. A trailing "*" marks the default, which is added when none of
// the group's labels is present. A trailing "+" marks a label that is kept
// on closed issues even when it is listed in the closed labels; a group with
// such a member is also evaluated while the issue is closed.
//
//	priority::high,priority::medium*,priority::low
//	public,confidential*+
//
// Label categories derive a category label from a set of expected labels.
// The last label is the category; it is present exactly when at least one
// of the others is.
//
//	bug,regression,type::defect
//
// Parsing is lenient at the list level: ParseGroups and ParseCategories
// return every valid rule together with a joined error describing the
// skipped ones, so a single bad entry never disables the rest.
package rules
