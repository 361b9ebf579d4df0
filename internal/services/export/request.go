package export

import (
	"net/url"

	"github.com/fgeck/pgdump-gateway/internal/models"
)

// ParseRequest builds an export request from form values. Presence flags
// (d_oids, s_clean, sd_oids, sd_clean) are set when the key is present at all.
func ParseRequest(values url.Values) (models.ExportRequest, error) {
	req := models.ExportRequest{
		Server:   values.Get("server"),
		Scope:    models.Scope(values.Get("subject")),
		Database: values.Get("database"),
		Schema:   values.Get("schema"),
		Content:  models.ContentMode(values.Get("what")),
		Delivery: models.DeliveryMode(values.Get("output")),
	}

	if req.Content == "" {
		req.Content = models.ContentStructureAndData
	}
	if req.Delivery == "" {
		req.Delivery = models.DeliveryInline
	}
	if req.Scope.HasObject() {
		req.Object = values.Get(string(req.Scope))
	}

	// Each content mode has its own set of option fields.
	switch req.Content {
	case models.ContentDataOnly:
		req.Format = dataFormat(values.Get("d_format"))
		req.OIDs = values.Has("d_oids")
	case models.ContentStructureOnly:
		req.Clean = values.Has("s_clean")
	case models.ContentStructureAndData:
		req.Format = dataFormat(values.Get("sd_format"))
		req.OIDs = values.Has("sd_oids")
		req.Clean = values.Has("sd_clean")
	}

	if err := Validate(req); err != nil {
		return models.ExportRequest{}, err
	}

	return req, nil
}

func dataFormat(s string) models.DataFormat {
	if s == string(models.FormatSQL) {
		return models.FormatSQL
	}
	return models.FormatCopy
}

// Validate checks that a request names a known scope, content and delivery
// mode and carries the names its scope needs.
func Validate(req models.ExportRequest) error {
	switch req.Scope {
	case models.ScopeCluster, models.ScopeDatabase, models.ScopeSchema, models.ScopeTable, models.ScopeView:
	case "":
		return invalidf("subject is required")
	default:
		return invalidf("unknown subject %q", req.Scope)
	}

	switch req.Content {
	case models.ContentDataOnly, models.ContentStructureOnly, models.ContentStructureAndData:
	default:
		return invalidf("unknown content mode %q", req.Content)
	}

	switch req.Delivery {
	case models.DeliveryInline, models.DeliveryDownload, models.DeliveryGzipDownload:
	default:
		return invalidf("unknown output %q", req.Delivery)
	}

	if req.Scope.IsCluster() {
		return nil
	}
	if req.Database == "" {
		return invalidf("database is required")
	}
	if req.Scope != models.ScopeDatabase && req.Schema == "" {
		return invalidf("schema is required")
	}
	if req.Scope.HasObject() && req.Object == "" {
		return invalidf("%s is required", req.Scope)
	}

	return nil
}
