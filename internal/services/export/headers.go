package export

import (
	"net/http"
	"strings"

	"github.com/fgeck/pgdump-gateway/internal/models"
)

// Download file names.
const (
	DumpFilename     = "dump.sql"
	GzipDumpFilename = "dump.sql.gz"
)

// SetHeaders sets the response headers for a delivery mode. Internet Explorer
// cannot save forced downloads over TLS, so it gets the dump as plain text.
func SetHeaders(h http.Header, delivery models.DeliveryMode, userAgent string, secure bool) {
	h.Set("X-Content-Type-Options", "nosniff")

	switch delivery {
	case models.DeliveryDownload:
		if strings.Contains(userAgent, "MSIE") && secure {
			h.Set("Content-Type", "text/plain")
			return
		}
		h.Set("Content-Type", "application/download")
		h.Set("Content-Disposition", "attachment; filename="+DumpFilename)
	case models.DeliveryGzipDownload:
		h.Set("Content-Type", "application/download")
		h.Set("Content-Disposition", "attachment; filename="+GzipDumpFilename)
	default:
		// No charset: the dump is in the database encoding.
		h.Set("Content-Type", "text/plain")
	}
}

// isSecure reports whether the request arrived over TLS. Forwarding headers
// are client controlled and ignored.
func isSecure(r *http.Request) bool {
	return r.TLS != nil
}
