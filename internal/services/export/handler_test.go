package export

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h http.Handler, method, query string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if method == http.MethodPost {
		req = httptest.NewRequest(method, "/export", strings.NewReader(query))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, "/export?"+query, nil)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_InlineDump(t *testing.T) {
	dump := &mockDumpService{}
	svc, _ := newTestService(testConfig(), dump, &mockTelegramService{})
	h := NewHandler(svc, testLogger())

	query := url.Values{
		"subject":  {"table"},
		"database": {"app"},
		"schema":   {"public"},
		"table":    {"users"},
		"what":     {"structureonly"},
		"s_clean":  {"on"},
		"output":   {"show"},
	}.Encode()

	rec := serve(t, h, http.MethodGet, query, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "-- PostgreSQL database dump\n", rec.Body.String())

	require.Len(t, dump.streamed, 1)
	assert.Equal(t, []string{"-t", `"public"."users"`, "-s", "-c"}, dump.streamed[0].Args)
}

func TestHandler_PostForm(t *testing.T) {
	dump := &mockDumpService{}
	svc, _ := newTestService(testConfig(), dump, &mockTelegramService{})
	h := NewHandler(svc, testLogger())

	form := url.Values{
		"subject":  {"database"},
		"database": {"app"},
		"what":     {"dataonly"},
		"d_format": {"sql"},
		"output":   {"download"},
	}.Encode()

	rec := serve(t, h, http.MethodPost, form, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/download", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=dump.sql", rec.Header().Get("Content-Disposition"))
	require.Len(t, dump.streamed, 1)
	assert.Equal(t, []string{"-a", "--inserts"}, dump.streamed[0].Args)
}

func TestHandler_GzipDownload(t *testing.T) {
	dump := &mockDumpService{}
	svc, _ := newTestService(testConfig(), dump, &mockTelegramService{})
	h := NewHandler(svc, testLogger())

	rec := serve(t, h, http.MethodGet, "subject=database&database=app&output=gzipped", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=dump.sql.gz", rec.Header().Get("Content-Disposition"))
	require.Len(t, dump.streamed, 1)
	assert.Equal(t, []string{"-Z", "9"}, dump.streamed[0].Args)
}

func TestHandler_MSIEOverTLSGetsPlainText(t *testing.T) {
	svc, _ := newTestService(testConfig(), &mockDumpService{}, &mockTelegramService{})
	h := NewHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/export?subject=database&database=app&output=download", nil)
	req.Header.Set("User-Agent", "Mozilla/4.0 (compatible; MSIE 7.0; Windows NT 5.1)")
	req.TLS = &tls.ConnectionState{}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
}

func TestHandler_ForwardedProtoDoesNotTriggerMSIEFallback(t *testing.T) {
	svc, _ := newTestService(testConfig(), &mockDumpService{}, &mockTelegramService{})
	h := NewHandler(svc, testLogger())

	header := http.Header{
		"User-Agent":        {"Mozilla/4.0 (compatible; MSIE 7.0; Windows NT 5.1)"},
		"X-Forwarded-Proto": {"https"},
	}
	rec := serve(t, h, http.MethodGet, "subject=database&database=app&output=download", header)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/download", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=dump.sql", rec.Header().Get("Content-Disposition"))
}

func TestHandler_ConfigurationError(t *testing.T) {
	dump := &mockDumpService{
		versionFunc: func(ctx context.Context, exe string) (*semver.Version, error) {
			return nil, errors.New("no version number in output")
		},
	}
	svc, _ := newTestService(testConfig(), dump, &mockTelegramService{})
	h := NewHandler(svc, testLogger())

	rec := serve(t, h, http.MethodGet, "subject=database&database=app&output=download", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "Failed to execute pg_dump")
	assert.Contains(t, rec.Body.String(), "/usr/bin/pg_dump")
	assert.Empty(t, dump.streamed)
}

func TestHandler_ConfigurationErrorDumpAllLocalized(t *testing.T) {
	dump := &mockDumpService{
		versionFunc: func(ctx context.Context, exe string) (*semver.Version, error) {
			return nil, errors.New("no version number in output")
		},
	}
	svc, _ := newTestService(testConfig(), dump, &mockTelegramService{})
	h := NewHandler(svc, testLogger())

	header := http.Header{"Accept-Language": {"de-DE,de;q=0.9,en;q=0.5"}}
	rec := serve(t, h, http.MethodGet, "subject=server", header)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Exportfehler")
	assert.Contains(t, rec.Body.String(), "pg_dumpall")
	assert.Contains(t, rec.Body.String(), "/usr/bin/pg_dumpall")
	assert.Empty(t, dump.streamed)
}

func TestHandler_ExportDisabledWritesNothing(t *testing.T) {
	dump := &mockDumpService{}
	svc, _ := newTestService(testConfig(), dump, &mockTelegramService{})
	h := NewHandler(svc, testLogger())

	rec := serve(t, h, http.MethodGet, "server=nodumpall&subject=server", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	assert.Empty(t, dump.probed)
	assert.Empty(t, dump.streamed)
}

func TestHandler_UnknownServer(t *testing.T) {
	svc, _ := newTestService(testConfig(), &mockDumpService{}, &mockTelegramService{})
	h := NewHandler(svc, testLogger())

	rec := serve(t, h, http.MethodGet, "server=nope&subject=database&database=app", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `unknown server "nope"`)
}

func TestHandler_InvalidRequest(t *testing.T) {
	dump := &mockDumpService{}
	svc, _ := newTestService(testConfig(), dump, &mockTelegramService{})
	h := NewHandler(svc, testLogger())

	rec := serve(t, h, http.MethodGet, "subject=table&database=app&schema=public", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Export error: invalid request: table is required\n", rec.Body.String())
	assert.Empty(t, dump.probed)
}
