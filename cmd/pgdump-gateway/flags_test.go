package main

import (
	"testing"

	"github.com/fgeck/pgdump-gateway/internal/models"
	"github.com/fgeck/pgdump-gateway/internal/services/export"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFlags(t *testing.T, args ...string) requestFlags {
	t.Helper()
	var f requestFlags
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return f
}

func TestRequestFlags_Defaults(t *testing.T) {
	f := parseFlags(t, "--database", "app")

	req, err := f.request()

	require.NoError(t, err)
	assert.Equal(t, models.ExportRequest{
		Scope:    models.ScopeDatabase,
		Database: "app",
		Content:  models.ContentStructureAndData,
		Format:   models.FormatCopy,
		Delivery: models.DeliveryDownload,
	}, req)
}

func TestRequestFlags_Table(t *testing.T) {
	f := parseFlags(t,
		"--server", "primary",
		"--subject", "table",
		"--database", "app",
		"--schema", "public",
		"--table", "users",
		"--view", "ignored",
		"--what", "dataonly",
		"--format", "sql",
		"--gzip",
	)

	req, err := f.request()

	require.NoError(t, err)
	assert.Equal(t, "primary", req.Server)
	assert.Equal(t, "users", req.Object)
	assert.Equal(t, models.FormatSQL, req.Format)
	assert.Equal(t, models.DeliveryGzipDownload, req.Delivery)
	assert.Equal(t, "app.public.users", req.Target())
}

func TestRequestFlags_Cluster(t *testing.T) {
	f := parseFlags(t, "--subject", "server", "--what", "structureonly", "--clean")

	req, err := f.request()

	require.NoError(t, err)
	assert.True(t, req.Scope.IsCluster())
	assert.True(t, req.Clean)
}

func TestRequestFlags_Invalid(t *testing.T) {
	f := parseFlags(t, "--subject", "view", "--database", "app", "--schema", "public")

	_, err := f.request()

	assert.ErrorIs(t, err, export.ErrInvalidRequest)
}
