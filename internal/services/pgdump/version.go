package pgdump

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrNoVersion is returned when the --version output holds no version number.
var ErrNoVersion = errors.New("no version number in output")

// versionPattern keeps major.minor and drops the patch level.
var versionPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)(?:\.\d+)?.*$`)

var (
	ignoreVersionConstraint  = mustConstraint("< 9.5")
	qualifiedTableConstraint = mustConstraint(">= 8.2")
)

func mustConstraint(c string) *semver.Constraints {
	constraint, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return constraint
}

// ParseVersion extracts major.minor from the last line of pg_dump --version output,
// e.g. "pg_dump (PostgreSQL) 9.4.26" yields 9.4.
func ParseVersion(output string) (*semver.Version, error) {
	line := lastLine(output)

	match := versionPattern.FindStringSubmatch(line)
	if match == nil {
		return nil, ErrNoVersion
	}

	v, err := semver.NewVersion(match[1])
	if err != nil {
		return nil, fmt.Errorf("parsing version %q: %w", match[1], err)
	}

	return v, nil
}

func lastLine(output string) string {
	lines := strings.Split(strings.TrimRight(output, "\r\n"), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// Dialect is the set of flag variations a pg_dump version understands.
type Dialect struct {
	// IgnoreVersion adds -i, which pg_dump accepted (and ignored) until 9.5.
	IgnoreVersion bool
	// QualifiedTable addresses a table as -t "schema"."table". Before 8.2
	// -t and -n were combined instead.
	QualifiedTable bool
}

// DialectFor returns the dialect for a pg_dump version.
func DialectFor(v *semver.Version) Dialect {
	return Dialect{
		IgnoreVersion:  ignoreVersionConstraint.Check(v),
		QualifiedTable: qualifiedTableConstraint.Check(v),
	}
}
