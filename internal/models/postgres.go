package models

import "time"

// ServerProfile holds the connection settings and dump executables for one PostgreSQL server.
type ServerProfile struct {
	Name          string
	Host          string // optional, libpq default when empty
	Port          int    // optional, libpq default when 0
	Username      string
	Password      string
	PgDumpPath    string // empty disables per-database exports
	PgDumpAllPath string // empty disables cluster-wide exports
}

// DumpPath returns the executable used for the given scope.
func (p ServerProfile) DumpPath(scope Scope) string {
	if scope.IsCluster() {
		return p.PgDumpAllPath
	}
	return p.PgDumpPath
}

// DumpCommand is a fully resolved dump invocation.
type DumpCommand struct {
	Path string
	Args []string
	Env  []string // passed to the child only, never to the parent process
}

// ExportResult holds the result of a streamed dump.
type ExportResult struct {
	Bytes    int64
	Duration time.Duration
	Error    error
}
