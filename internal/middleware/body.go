package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/crucial707/api-bootstrap/internal/metrics"
)

type bodyKey int

const (
	jsonBodyKey bodyKey = iota
	formBodyKey
)

var (
	errBodyTooLarge       = errors.New("request entity too large")
	errUnsupportedCharset = errors.New("unsupported charset")
)

// JSONBody returns the value decoded by the JSON middleware, if the request carried one.
func JSONBody(ctx context.Context) (any, bool) {
	v, ok := ctx.Value(jsonBodyKey).(jsonValue)
	if !ok {
		return nil, false
	}
	return v.v, true
}

// jsonValue wraps the decoded body so a literal JSON null is still reported as present.
type jsonValue struct{ v any }

// JSON decodes application/json (and +json) request bodies and attaches the result
// to the request context. Only objects and arrays are accepted at the top level.
// GET and HEAD requests, other content types and empty bodies pass through untouched.
// The raw bytes are put back on r.Body for handlers that want to decode into a struct.
func JSON(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mediaType, params, ok := contentType(r)
			if !ok || !isJSONType(mediaType) {
				next.ServeHTTP(w, r)
				return
			}
			raw, err := readBody(w, r, limit, params)
			if err != nil {
				rejectBody(w, "json", err)
				return
			}
			if raw == nil {
				next.ServeHTTP(w, r)
				return
			}

			trimmed := bytes.TrimLeft(raw, " \t\r\n")
			if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
				metrics.IncBodyParseError("json", "strict")
				writeJSONError(w, "invalid json body", http.StatusBadRequest)
				return
			}
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				metrics.IncBodyParseError("json", "syntax")
				writeJSONError(w, "invalid json body", http.StatusBadRequest)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(raw))
			ctx := context.WithValue(r.Context(), jsonBodyKey, jsonValue{v})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isJSONType(mediaType string) bool {
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// contentType reports the parsed media type. ok is false when the request has no body,
// is a GET or HEAD, or the header is missing or unparsable; the parsers skip those requests.
func contentType(r *http.Request) (string, map[string]string, bool) {
	if r.Body == nil || r.Body == http.NoBody {
		return "", nil, false
	}
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return "", nil, false
	}
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return "", nil, false
	}
	mediaType, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", nil, false
	}
	return mediaType, params, true
}

// readBody reads at most limit bytes. It returns nil, nil for an empty body.
func readBody(w http.ResponseWriter, r *http.Request, limit int64, params map[string]string) ([]byte, error) {
	if cs, ok := params["charset"]; ok && !strings.EqualFold(cs, "utf-8") && !strings.EqualFold(cs, "utf8") {
		return nil, errUnsupportedCharset
	}
	if limit > 0 && r.ContentLength > limit {
		return nil, errBodyTooLarge
	}
	body := r.Body
	if limit > 0 {
		body = http.MaxBytesReader(w, r.Body, limit)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errBodyTooLarge
		}
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

func rejectBody(w http.ResponseWriter, parser string, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		metrics.IncBodyParseError(parser, "too_large")
		writeJSONError(w, errBodyTooLarge.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, errUnsupportedCharset):
		metrics.IncBodyParseError(parser, "charset")
		writeJSONError(w, errUnsupportedCharset.Error(), http.StatusUnsupportedMediaType)
	case errors.Is(err, errTooManyParameters):
		metrics.IncBodyParseError(parser, "parameters")
		writeJSONError(w, errTooManyParameters.Error(), http.StatusRequestEntityTooLarge)
	default:
		metrics.IncBodyParseError(parser, "read")
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
	}
}

func writeJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
