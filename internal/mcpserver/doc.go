// Package mcpserver exposes housekeep to AI assistants over the Model
// Context Protocol.
//
// The server speaks MCP over stdio and offers three tools:
//
//   - reconcile_issue applies every rule to one issue and returns its report
//   - preview_ledger renders the ledger summary of an issue without writing
//   - list_rules returns the label rules in use
//
// All responses are JSON. Tool failures are returned as MCP tool errors so
// the assistant can show them, never as protocol errors.
//
// Reconciliation requests are serialized: the tracker is only ever touched
// for one issue at a time, no matter how many calls the client has in
// flight.
//
// # Usage
//
//	orch, _ := orchestrator.New(cfg)
//	srv := mcpserver.New(orch, version)
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
package mcpserver
