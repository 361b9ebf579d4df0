package pgdump

import (
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/fgeck/pgdump-gateway/internal/models"
)

// CleanIdentifier prepares a name for use inside a double-quoted identifier.
// Embedded quotes are doubled and NUL bytes, which no argv can carry, are dropped.
func CleanIdentifier(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.ReplaceAll(s, `"`, `""`)
}

func quoteIdent(s string) string {
	return `"` + s + `"`
}

// BuildCommand turns an export request into a pg_dump or pg_dumpall invocation.
// The result only depends on its inputs.
func BuildCommand(req models.ExportRequest, profile models.ServerProfile, version *semver.Version) models.DumpCommand {
	dialect := DialectFor(version)

	var args []string
	if dialect.IgnoreVersion {
		args = append(args, "-i")
	}

	schema := CleanIdentifier(req.Schema)

	switch req.Scope {
	case models.ScopeSchema:
		args = append(args, "-n", quoteIdent(schema))
	case models.ScopeTable, models.ScopeView:
		object := CleanIdentifier(req.Object)
		if dialect.QualifiedTable {
			args = append(args, "-t", quoteIdent(schema)+"."+quoteIdent(object))
		} else {
			args = append(args, "-t", object, "-n", schema)
		}
	}

	if req.Delivery == models.DeliveryGzipDownload && !req.Scope.IsCluster() {
		args = append(args, "-Z", "9")
	}

	switch req.Content {
	case models.ContentDataOnly:
		args = append(args, "-a")
		args = appendDataFlags(args, req)
	case models.ContentStructureOnly:
		args = append(args, "-s")
		if req.Clean {
			args = append(args, "-c")
		}
	case models.ContentStructureAndData:
		args = appendDataFlags(args, req)
		if req.Clean {
			args = append(args, "-c")
		}
	}

	return models.DumpCommand{
		Path: profile.DumpPath(req.Scope),
		Args: args,
		Env:  BuildEnv(req, profile),
	}
}

// appendDataFlags adds --inserts for SQL output, otherwise -o when OIDs are requested.
func appendDataFlags(args []string, req models.ExportRequest) []string {
	switch {
	case req.Format == models.FormatSQL:
		return append(args, "--inserts")
	case req.OIDs:
		return append(args, "-o")
	}
	return args
}

// BuildEnv returns the libpq environment for the dump child process.
func BuildEnv(req models.ExportRequest, profile models.ServerProfile) []string {
	env := []string{
		"PGUSER=" + stripNUL(profile.Username),
		"PGPASSWORD=" + stripNUL(profile.Password),
	}

	if profile.Host != "" {
		env = append(env, "PGHOST="+stripNUL(profile.Host))
	}
	if profile.Port != 0 {
		env = append(env, "PGPORT="+strconv.Itoa(profile.Port))
	}
	if !req.Scope.IsCluster() {
		env = append(env, "PGDATABASE="+stripNUL(req.Database))
	}

	return env
}

func stripNUL(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}

// RedactEnv returns env with the password replaced, for display and logging.
func RedactEnv(env []string) []string {
	redacted := make([]string, len(env))
	for i, kv := range env {
		if strings.HasPrefix(kv, "PGPASSWORD=") {
			kv = "PGPASSWORD=********"
		}
		redacted[i] = kv
	}
	return redacted
}
