//go:build e2e

package e2e

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fgeck/pgdump-gateway/internal/config"
	"github.com/fgeck/pgdump-gateway/internal/metrics"
	"github.com/fgeck/pgdump-gateway/internal/server"
	"github.com/fgeck/pgdump-gateway/internal/services/export"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fakeDump stands in for pg_dump and pg_dumpall: it reports a 9.4 version and
// echoes its arguments and libpq environment.
const fakeDump = `#!/bin/sh
if [ "$1" = "--version" ]; then
  echo "pg_dump (PostgreSQL) 9.4.26"
  exit 0
fi
echo "-- args: $*"
echo "-- user: $PGUSER password: $PGPASSWORD host: $PGHOST port: $PGPORT db: $PGDATABASE"
echo "-- inherited: ${PGSERVICE:-none}"
`

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755)) //nolint:gosec // test executable
	return path
}

func startGateway(t *testing.T, dumpPath, dumpAllPath string) (*httptest.Server, *prometheus.Registry) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("gateway-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	yaml := fmt.Sprintf(`
auth:
  username: admin
  password_hash: %q
servers:
  - name: primary
    host: db.lan
    port: 5433
    username: dumper
    password: s3cret
    pg_dump_path: %s
    pg_dumpall_path: %s
  - name: dumponly
    pg_dump_path: %s
`, string(hash), dumpPath, dumpAllPath, dumpPath)

	cfg, err := config.NewParser().LoadReader(yaml)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	handler := export.NewHandler(export.New(*cfg, testLogger(), m), testLogger())

	ts := httptest.NewServer(server.New(*cfg, testLogger(), handler, reg).Handler())
	t.Cleanup(ts.Close)
	return ts, reg
}

func get(t *testing.T, ts *httptest.Server, path string, values url.Values) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, ts.URL+path+"?"+values.Encode(), nil)
	require.NoError(t, err)
	req.SetBasicAuth("admin", "gateway-pass")

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestExportTable_E2E(t *testing.T) {
	t.Setenv("PGSERVICE", "leaked")
	script := writeScript(t, "pg_dump", fakeDump)
	ts, _ := startGateway(t, script, script)

	resp := get(t, ts, "/export", url.Values{
		"subject":  {"table"},
		"database": {"app"},
		"schema":   {"public"},
		"table":    {`we"ird`},
		"what":     {"dataonly"},
		"d_format": {"sql"},
		"output":   {"download"},
	})
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "attachment; filename=dump.sql", resp.Header.Get("Content-Disposition"))
	assert.Contains(t, body, `-- args: -i -t "public"."we""ird" -a --inserts`)
	assert.Contains(t, body, "-- user: dumper password: s3cret host: db.lan port: 5433 db: app")
	assert.Contains(t, body, "-- inherited: none")
}

func TestExportClusterGzip_E2E(t *testing.T) {
	script := writeScript(t, "pg_dumpall", fakeDump)
	ts, _ := startGateway(t, script, script)

	resp := get(t, ts, "/export", url.Values{
		"subject": {"server"},
		"what":    {"structureonly"},
		"s_clean": {""},
		"output":  {"gzipped"},
	})
	body := readBody(t, resp)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "attachment; filename=dump.sql.gz", resp.Header.Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(body, "-- args: -i -s -c\n"), body)
	assert.Contains(t, body, "db: \n")
}

func TestExportDisabled_E2E(t *testing.T) {
	script := writeScript(t, "pg_dump", fakeDump)
	ts, _ := startGateway(t, script, script)

	resp := get(t, ts, "/export", url.Values{"server": {"dumponly"}, "subject": {"server"}})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, readBody(t, resp))
}

func TestExportBadExecutable_E2E(t *testing.T) {
	broken := writeScript(t, "pg_dump", "#!/bin/sh\necho 'not a dump tool'\n")
	ts, reg := startGateway(t, broken, broken)

	resp := get(t, ts, "/export", url.Values{"subject": {"database"}, "database": {"app"}})
	body := readBody(t, resp)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "Failed to execute pg_dump")
	assert.Contains(t, body, broken)
	assert.NotContains(t, body, "-- args")

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "pgdump_gateway_version_probe_failures_total")
}

func TestExportRequiresAuth_E2E(t *testing.T) {
	script := writeScript(t, "pg_dump", fakeDump)
	ts, _ := startGateway(t, script, script)

	resp, err := ts.Client().Get(ts.URL + "/export?subject=database&database=app")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	health, err := ts.Client().Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer health.Body.Close()

	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestMetricsAfterExport_E2E(t *testing.T) {
	script := writeScript(t, "pg_dump", fakeDump)
	ts, _ := startGateway(t, script, script)

	resp := get(t, ts, "/export", url.Values{"subject": {"database"}, "database": {"app"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	readBody(t, resp)

	metricsResp := get(t, ts, "/metrics", nil)
	body := readBody(t, metricsResp)

	assert.True(t, strings.Contains(body, `pgdump_gateway_exports_total{delivery="show",scope="database",status="ok"} 1`), body)
}
