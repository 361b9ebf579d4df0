package main

import (
	"github.com/fgeck/pgdump-gateway/internal/models"
	"github.com/fgeck/pgdump-gateway/internal/services/export"
	"github.com/spf13/cobra"
)

// requestFlags mirror the parameters of the /export endpoint.
type requestFlags struct {
	server   string
	subject  string
	database string
	schema   string
	table    string
	view     string
	what     string
	format   string
	oids     bool
	clean    bool
	gzip     bool
}

func (f *requestFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.server, "server", "", "server profile name (default: first configured)")
	flags.StringVar(&f.subject, "subject", string(models.ScopeDatabase), "what to export: server, database, schema, table or view")
	flags.StringVar(&f.database, "database", "", "database name")
	flags.StringVar(&f.schema, "schema", "", "schema name")
	flags.StringVar(&f.table, "table", "", "table name (subject table)")
	flags.StringVar(&f.view, "view", "", "view name (subject view)")
	flags.StringVar(&f.what, "what", string(models.ContentStructureAndData), "dataonly, structureonly or structureanddata")
	flags.StringVar(&f.format, "format", string(models.FormatCopy), "data format: copy or sql")
	flags.BoolVar(&f.oids, "oids", false, "include OIDs (copy format only)")
	flags.BoolVar(&f.clean, "clean", false, "emit DROP statements before CREATE")
	flags.BoolVar(&f.gzip, "gzip", false, "compress the dump with pg_dump -Z 9 (pg_dumpall output is not compressed)")
}

func (f *requestFlags) request() (models.ExportRequest, error) {
	req := models.ExportRequest{
		Server:   f.server,
		Scope:    models.Scope(f.subject),
		Database: f.database,
		Schema:   f.schema,
		Content:  models.ContentMode(f.what),
		Format:   models.FormatCopy,
		OIDs:     f.oids,
		Clean:    f.clean,
		Delivery: models.DeliveryDownload,
	}

	if f.format == string(models.FormatSQL) {
		req.Format = models.FormatSQL
	}
	switch req.Scope {
	case models.ScopeTable:
		req.Object = f.table
	case models.ScopeView:
		req.Object = f.view
	}
	if f.gzip {
		req.Delivery = models.DeliveryGzipDownload
	}

	if err := export.Validate(req); err != nil {
		return models.ExportRequest{}, err
	}

	return req, nil
}
