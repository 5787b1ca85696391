package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func TestForceHTTPS(t *testing.T) {
	cases := []struct {
		name    string
		enabled bool
		url     string
		proto   string
		tls     bool
		want    int
	}{
		{"disabled", false, "http://laxmipaan.in/api/forms/contact", "", false, http.StatusOK},
		{"plain http", true, "http://laxmipaan.in/api/forms/contact?x=1", "", false, http.StatusPermanentRedirect},
		{"tls", true, "https://laxmipaan.in/", "", true, http.StatusOK},
		{"proxy https", true, "http://laxmipaan.in/", "https", false, http.StatusOK},
		{"localhost", true, "http://localhost:8080/", "", false, http.StatusOK},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, c.url, nil)
			if c.proto != "" {
				req.Header.Set("X-Forwarded-Proto", c.proto)
			}
			if c.tls {
				req.TLS = &tls.ConnectionState{}
			}
			rr := httptest.NewRecorder()
			ForceHTTPS(c.enabled)(okHandler).ServeHTTP(rr, req)
			if rr.Code != c.want {
				t.Fatalf("status = %d, want %d", rr.Code, c.want)
			}
			if c.want == http.StatusPermanentRedirect {
				if loc := rr.Header().Get("Location"); loc != "https://laxmipaan.in/api/forms/contact?x=1" {
					t.Fatalf("Location = %q", loc)
				}
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	Security(okHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, h := range []string{
		"Strict-Transport-Security", "Content-Security-Policy", "X-Frame-Options",
		"X-Content-Type-Options", "Referrer-Policy", "Permissions-Policy",
	} {
		if rr.Header().Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}
}

func TestStripPort(t *testing.T) {
	for in, want := range map[string]string{
		"localhost:8080": "localhost",
		"laxmipaan.in":   "laxmipaan.in",
		"[::1]:8080":     "[::1]",
	} {
		if got := stripPort(in); got != want {
			t.Errorf("stripPort(%q) = %q", in, got)
		}
	}
}
