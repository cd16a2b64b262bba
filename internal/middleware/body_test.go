package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// captureJSON returns a handler that records what the JSON middleware attached.
func captureJSON(got *any, present *bool, rawBody *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got, *present = JSONBody(r.Context())
		b, _ := io.ReadAll(r.Body)
		*rawBody = string(b)
		w.WriteHeader(http.StatusOK)
	})
}

func TestJSON_ParsesBody(t *testing.T) {
	var got any
	var present bool
	var raw string
	h := JSON(1024)(captureJSON(&got, &present, &raw))

	req := httptest.NewRequest("POST", "/anything", strings.NewReader(`{"name":"ada","tags":["x"]}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	m, ok := got.(map[string]any)
	if !present || !ok || m["name"] != "ada" {
		t.Errorf("unexpected parsed body: %#v (present=%v)", got, present)
	}
	if raw != `{"name":"ada","tags":["x"]}` {
		t.Errorf("body not restored for handler: %q", raw)
	}
}

func TestJSON_VendorType(t *testing.T) {
	var got any
	var present bool
	var raw string
	h := JSON(1024)(captureJSON(&got, &present, &raw))

	req := httptest.NewRequest("POST", "/", strings.NewReader(`[1,2]`))
	req.Header.Set("Content-Type", "application/vnd.api+json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if _, ok := got.([]any); !present || !ok {
		t.Errorf("expected array body, got %#v", got)
	}
}

func TestJSON_Rejections(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		want        int
	}{
		{"malformed", `{"name":`, "application/json", http.StatusBadRequest},
		{"primitive", `"just a string"`, "application/json", http.StatusBadRequest},
		{"too large", `{"pad":"` + strings.Repeat("x", 64) + `"}`, "application/json", http.StatusRequestEntityTooLarge},
		{"charset", `{}`, "application/json; charset=latin1", http.StatusUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := JSON(32)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d", rr.Code, tt.want)
			}
			if called {
				t.Error("next handler should not run")
			}
			var out map[string]string
			if err := json.NewDecoder(rr.Body).Decode(&out); err != nil || out["error"] == "" {
				t.Errorf("expected JSON error body, got err=%v body=%v", err, out)
			}
		})
	}
}

func TestJSON_PassThrough(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
	}{
		{"no content type", "POST", `{"a":1}`, ""},
		{"plain text", "POST", `not json`, "text/plain"},
		{"empty body", "POST", ``, "application/json"},
		{"malformed on GET", "GET", `{"a":`, "application/json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got any
			var present bool
			var raw string
			h := JSON(1024)(captureJSON(&got, &present, &raw))
			req := httptest.NewRequest(tt.method, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Errorf("status: got %d, want 200", rr.Code)
			}
			if present {
				t.Errorf("no body should be attached, got %#v", got)
			}
			if raw != tt.body {
				t.Errorf("body changed: got %q, want %q", raw, tt.body)
			}
		})
	}
}

func TestJSON_NullIsPresent(t *testing.T) {
	var got any
	var present bool
	var raw string
	h := JSON(1024)(captureJSON(&got, &present, &raw))
	req := httptest.NewRequest("POST", "/", strings.NewReader(`[null]`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)

	arr, ok := got.([]any)
	if !present || !ok || len(arr) != 1 || arr[0] != nil {
		t.Errorf("got %#v present=%v", got, present)
	}
}
