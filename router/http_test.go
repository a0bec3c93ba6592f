package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mediavault/config"
)

func TestURLHandlersRewriteSecureOrigin(t *testing.T) {
	config.AppConfig.CdnSecureBaseURL = "https://secure.test/cdn"
	defer func() { config.AppConfig.CdnSecureBaseURL = "" }()

	r := InitRouter()

	// plain requests keep the public origin
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/placeholder-url?width=100&height=100&border=2", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "http://localhost:8000/cdn") {
		t.Fatalf("plain request body = %s", w.Body.String())
	}

	// forwarded HTTPS rewrites onto the secure origin
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/placeholder-url?width=100&height=100&border=2", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "https://secure.test/cdn") {
		t.Fatalf("secure request body = %s", w.Body.String())
	}

	// the avatar variant goes through the same rewrite
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/blank-avatar-url?width=100&height=100&sex=female", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "https://secure.test/cdn") {
		t.Fatalf("avatar body = %s", w.Body.String())
	}
}

func TestGeneratedImageDimensionRejections(t *testing.T) {
	r := InitRouter()

	// a permitted size serves a PNG
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cdn/placeholder/100/100/2", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("status = %d, content-type = %q", w.Code, w.Header().Get("Content-Type"))
	}

	// outside production a disallowed size explains itself
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/cdn/placeholder/123/457/0", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "CDN_PERMITTED_DIMENSIONS") {
		t.Fatalf("body = %q", w.Body.String())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/cdn/blank-avatar/123/457/male", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("avatar status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "CDN_PERMITTED_DIMENSIONS") {
		t.Fatalf("avatar body = %q", w.Body.String())
	}

	// production callers only learn the resource does not exist
	config.AppConfig.AppEnv = "production"
	defer func() { config.AppConfig.AppEnv = "development" }()
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/cdn/placeholder/123/457/0", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("production status = %d", w.Code)
	}
}
