// Package logging is the subsystem-tagged logger used across housekeep.
//
// Every entry carries a short subsystem name as an attribute; Error adds the
// error text as a separate "error" attribute:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//	logging.Info("Orchestrator", "Processing issue #%d", iid)
//	logging.Error("Tracker", err, "Failed to update issue #%d", iid)
//
// The daemon logs JSON so journald and log shippers can parse it:
//
//	logging.Init(logging.LevelInfo, logging.FormatJSON, os.Stderr)
//
// Subsystems in use: CLI, ConfigLoader, ConfigWatcher, Daemon, Labels, Ledger,
// MCPServer, Metrics, Orchestrator, StateRules and Tracker.
package logging
