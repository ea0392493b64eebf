package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func call(h http.Handler, path, header, value string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Code
}

func TestAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		key      string
		sendKey  string
		wantCode int
	}{
		{"mode none passes", "none", "secret", "", http.StatusOK},
		{"empty mode passes", "", "secret", "", http.StatusOK},
		{"apikey without configured key passes", "apikey", "", "", http.StatusOK},
		{"correct key", "apikey", "secret", "secret", http.StatusOK},
		{"wrong key", "apikey", "secret", "nope", http.StatusUnauthorized},
		{"missing key", "apikey", "secret", "", http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := APIKey(tc.mode, "X-API-Key", tc.key)(okHandler)
			header := ""
			if tc.sendKey != "" {
				header = "X-API-Key"
			}
			if got := call(h, "/api/v1/health", header, tc.sendKey); got != tc.wantCode {
				t.Errorf("status: got %d, want %d", got, tc.wantCode)
			}
		})
	}
}

func TestAPIKey_CustomHeader(t *testing.T) {
	h := APIKey("apikey", "X-Sentinel-Key", "k1")(okHandler)
	if got := call(h, "/api/v1/machines", "X-API-Key", "k1"); got != http.StatusUnauthorized {
		t.Errorf("key in wrong header: got %d, want 401", got)
	}
	if got := call(h, "/api/v1/machines", "X-Sentinel-Key", "k1"); got != http.StatusOK {
		t.Errorf("key in configured header: got %d, want 200", got)
	}
}

func TestAPIKey_ExemptPath(t *testing.T) {
	h := APIKey("apikey", "X-API-Key", "secret", "/healthz")(okHandler)
	if got := call(h, "/healthz", "", ""); got != http.StatusOK {
		t.Errorf("exempt path: got %d, want 200", got)
	}
	if got := call(h, "/api/v1/health", "", ""); got != http.StatusUnauthorized {
		t.Errorf("non-exempt path: got %d, want 401", got)
	}
}
