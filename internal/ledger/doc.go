// Package ledger keeps a numeric ledger inside the notes of an issue.
//
// Users record entries by writing directive lines into ordinary notes:
//
//	!count 5 2024-01-01
//	!count 2.5
//	!countunit km
//	!countgoal 100
//
// A count without a date is booked on the day the note was created. On every
// pass the engine rebuilds the ledger from all notes, compares it with the
// state persisted in its own state note and, when they differ, rewrites the
// state note and a human-readable summary note. Both notes are recognised by
// the marker at the start of their body; no other index is kept.
//
// The codec (Parse*/Render* functions) is pure and never talks to the
// tracker, so the persistence format can be tested in isolation.
package ledger
