package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// MaxFormParameters caps the number of key/value pairs in a URL-encoded body.
const MaxFormParameters = 1000

// maxFormArrayIndex is the largest numeric index turned into a slice element.
// Maps keyed by larger indices stay maps.
const maxFormArrayIndex = 20

var errTooManyParameters = errors.New("too many parameters")

// FormBody returns the nested value tree built by the URLEncoded middleware.
func FormBody(ctx context.Context) (map[string]any, bool) {
	v, ok := ctx.Value(formBodyKey).(map[string]any)
	return v, ok
}

// URLEncoded parses application/x-www-form-urlencoded bodies into a nested tree and
// attaches it to the request context. Bracketed keys build maps and slices:
//
//	user[name]=ada&user[langs][]=go&user[langs][]=c
//	=> {"user": {"name": "ada", "langs": ["go", "c"]}}
//
// maxDepth bounds the bracket nesting; deeper segments are kept as one literal key.
// The parsed values are also set on r.PostForm.
func URLEncoded(limit int64, maxDepth int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mediaType, params, ok := contentType(r)
			if !ok || mediaType != "application/x-www-form-urlencoded" {
				next.ServeHTTP(w, r)
				return
			}
			raw, err := readBody(w, r, limit, params)
			if err == nil && raw != nil && bytes.Count(raw, []byte("&")) >= MaxFormParameters {
				err = errTooManyParameters
			}
			if err != nil {
				rejectBody(w, "urlencoded", err)
				return
			}
			if raw == nil {
				next.ServeHTTP(w, r)
				return
			}

			values := parseForm(string(raw))

			r.Body = io.NopCloser(bytes.NewReader(raw))
			r.PostForm = values
			ctx := context.WithValue(r.Context(), formBodyKey, ExpandForm(values, maxDepth))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// parseForm splits a URL-encoded body into ordered values. Unlike url.ParseQuery it
// never fails: ';' is ordinary text, and a component that cannot be unescaped
// (a lone '%', a truncated escape) is kept as written with '+' read as a space.
func parseForm(raw string) url.Values {
	values := make(url.Values)
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		key = unescapeFormComponent(key)
		if key == "" {
			continue
		}
		values[key] = append(values[key], unescapeFormComponent(value))
	}
	return values
}

func unescapeFormComponent(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return strings.ReplaceAll(s, "+", " ")
}

// ExpandForm turns flat form values into a nested tree following bracket notation.
// Keys are applied in sorted order so conflicting keys resolve the same way every time.
// Conflicts never drop a value: a scalar or list that has to hold children becomes a
// map keyed by index, and appending to a map adds the next free index.
func ExpandForm(values url.Values, maxDepth int) map[string]any {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	root := make(map[string]any)
	for _, k := range keys {
		path := splitFormKey(k, maxDepth)
		for _, v := range values[k] {
			assignForm(root, path, v)
		}
	}
	for k, child := range root {
		root[k] = compactForm(child)
	}
	return root
}

// splitFormKey splits "a[b][]" into ["a", "b", ""].
func splitFormKey(key string, maxDepth int) []string {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return []string{key}
	}
	path := []string{key[:open]}
	rest := key[open:]
	for len(rest) > 0 && rest[0] == '[' {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			break
		}
		if len(path) > maxDepth {
			break
		}
		path = append(path, rest[1:end])
		rest = rest[end+1:]
	}
	if rest != "" {
		path = append(path, rest)
	}
	return path
}

func assignForm(node map[string]any, path []string, value string) {
	for i, seg := range path {
		if i == len(path)-1 {
			addLeaf(node, seg, value, false)
			return
		}
		if path[i+1] == "" && i+1 == len(path)-1 {
			addLeaf(node, seg, value, true)
			return
		}
		node = childMap(node, seg)
	}
}

// addLeaf stores value under key. A second value for the same key turns it into a list.
// asList forces a list even for the first value ("a[]=x").
func addLeaf(node map[string]any, key, value string, asList bool) {
	switch cur := node[key].(type) {
	case nil:
		if asList {
			node[key] = []any{value}
		} else {
			node[key] = value
		}
	case string:
		node[key] = []any{cur, value}
	case []any:
		node[key] = append(cur, value)
	case map[string]any:
		cur[strconv.Itoa(nextFormIndex(cur))] = value
	}
}

// childMap returns the map stored under key, converting whatever is there into one.
func childMap(node map[string]any, key string) map[string]any {
	switch cur := node[key].(type) {
	case map[string]any:
		return cur
	case string:
		m := map[string]any{"0": cur}
		node[key] = m
		return m
	case []any:
		m := make(map[string]any, len(cur))
		for i, v := range cur {
			m[strconv.Itoa(i)] = v
		}
		node[key] = m
		return m
	default:
		m := make(map[string]any)
		node[key] = m
		return m
	}
}

// nextFormIndex is one past the largest numeric key in m, or 0.
func nextFormIndex(m map[string]any) int {
	next := 0
	for k := range m {
		if n, err := strconv.Atoi(k); err == nil && n >= next {
			next = n + 1
		}
	}
	return next
}

// compactForm converts maps keyed only by small indices ("0", "1", ...) into slices
// ordered by index.
func compactForm(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	for k, child := range m {
		m[k] = compactForm(child)
	}
	if len(m) == 0 {
		return m
	}
	idx := make([]int, 0, len(m))
	for k := range m {
		n, err := strconv.Atoi(k)
		if err != nil || n < 0 || n > maxFormArrayIndex || strconv.Itoa(n) != k {
			return m
		}
		idx = append(idx, n)
	}
	sort.Ints(idx)
	out := make([]any, 0, len(idx))
	for _, n := range idx {
		out = append(out, m[strconv.Itoa(n)])
	}
	return out
}
