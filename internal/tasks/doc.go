// Package tasks keeps recurring tasks alive as GitLab issues.
//
// A collection directory holds one YAML file per task. The file name
// without extension is the task key. Running the collection either opens a
// new issue for a task, or, when an open issue for the key already exists,
// pings its assignees again. Every task issue carries a state note with a
// fenced YAML block that records the key, how often the task was raised and
// the current ping note.
package tasks
