package export

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fgeck/pgdump-gateway/internal/models"
	"github.com/stretchr/testify/assert"
)

const msieUserAgent = "Mozilla/4.0 (compatible; MSIE 8.0; Windows NT 6.1; Trident/4.0)"

func TestSetHeaders(t *testing.T) {
	tests := []struct {
		name        string
		delivery    models.DeliveryMode
		userAgent   string
		secure      bool
		contentType string
		disposition string
	}{
		{"inline", models.DeliveryInline, "curl/8.0", false, "text/plain", ""},
		{"download", models.DeliveryDownload, "curl/8.0", true, "application/download", "attachment; filename=dump.sql"},
		{"download msie plain http", models.DeliveryDownload, msieUserAgent, false, "application/download", "attachment; filename=dump.sql"},
		{"download msie tls", models.DeliveryDownload, msieUserAgent, true, "text/plain", ""},
		{"gzipped", models.DeliveryGzipDownload, "curl/8.0", false, "application/download", "attachment; filename=dump.sql.gz"},
		{"gzipped msie tls", models.DeliveryGzipDownload, msieUserAgent, true, "application/download", "attachment; filename=dump.sql.gz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}

			SetHeaders(h, tt.delivery, tt.userAgent, tt.secure)

			assert.Equal(t, tt.contentType, h.Get("Content-Type"))
			assert.Equal(t, tt.disposition, h.Get("Content-Disposition"))
			assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
		})
	}
}

func TestIsSecure(t *testing.T) {
	plain := httptest.NewRequest(http.MethodGet, "/export", nil)
	assert.False(t, isSecure(plain))

	direct := httptest.NewRequest(http.MethodGet, "/export", nil)
	direct.TLS = &tls.ConnectionState{}
	assert.True(t, isSecure(direct))

	forwarded := httptest.NewRequest(http.MethodGet, "/export", nil)
	forwarded.Header.Set("X-Forwarded-Proto", "https")
	assert.False(t, isSecure(forwarded))
}
