// Package database provides the PostgreSQL connection pool used by the audit trail.
//
// The host only talks to one database: forwarded commands are appended to the
// forwarded_commands table (see package audit). Nothing here is required when
// audit.enabled is false.
package database
