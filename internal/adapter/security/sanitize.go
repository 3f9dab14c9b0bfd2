package security

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"github.com/thushan/warden/internal/core/domain"
)

type inputContextKey struct{}

// SanitizeString trims surrounding whitespace, drops control characters other
// than tab and newlines, and HTML-escapes what is left
func SanitizeString(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return html.EscapeString(strings.TrimSpace(s))
}

// Sanitise returns a copy of the input with every string leaf cleaned
func (in RequestInput) Sanitise() RequestInput {
	return RequestInput{
		Value:  in.Value.MapStrings(SanitizeString),
		format: in.format,
	}
}

// Apply rewrites the request so downstream handlers only see the sanitised
// body and query, and stores the sanitised tree on the context. Bodies that
// were not scanned are replayed untouched.
func (in RequestInput) Apply(r *http.Request, original []byte) (*http.Request, error) {
	body := original

	if bodyValue, ok := in.Value.Get(InputBody); ok {
		switch in.format {
		case bodyJSON:
			encoded, err := bodyValue.MarshalJSON()
			if err != nil {
				return nil, err
			}
			body = encoded
		case bodyForm:
			body = []byte(objectToValues(bodyValue).Encode())
		case bodyText:
			if bodyValue.Kind == domain.KindString {
				body = []byte(bodyValue.Str)
			}
		}
	}

	r = r.WithContext(context.WithValue(r.Context(), inputContextKey{}, in.Value))

	if query, ok := in.Value.Get(InputQuery); ok && len(query.Fields) > 0 {
		u := *r.URL
		u.RawQuery = objectToValues(query).Encode()
		r.URL = &u
	}

	if body != nil {
		r.Body = io.NopCloser(bytes.NewReader(body))
		r.ContentLength = int64(len(body))
		r.Header.Set("Content-Length", strconv.Itoa(len(body)))
	}
	return r, nil
}

// InputFromContext returns the sanitised {body, query, params} tree the guard
// stored for this request
func InputFromContext(ctx context.Context) (domain.Value, bool) {
	v, ok := ctx.Value(inputContextKey{}).(domain.Value)
	return v, ok
}
