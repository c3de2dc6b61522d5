// Package audit records every command forwarded to a hosted server.
//
// The Writer implements remote.Recorder. RecordForward only enqueues; a
// background loop drains the queue in batches into the forwarded_commands
// table. Rows are append-only and keyed by a random UUID.
package audit
