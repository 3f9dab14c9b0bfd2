package security

import (
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/thushan/warden/internal/core/domain"
)

// maxInputDepth bounds recursion over hostile nesting; anything deeper is
// kept as its raw text so it is still scanned.
const maxInputDepth = 64

const (
	InputBody   = "body"
	InputQuery  = "query"
	InputParams = "params"
)

type bodyFormat uint8

const (
	bodyNone bodyFormat = iota
	bodyJSON
	bodyForm
	bodyText
)

// RequestInput is the scannable view of a request plus what is needed to
// write a sanitised copy back
type RequestInput struct {
	Value  domain.Value
	format bodyFormat
}

// BuildInput assembles {body, query, params} for a request whose body has
// already been read under the size ceiling. Multipart and binary bodies are
// not scanned.
func BuildInput(r *http.Request, body []byte) RequestInput {
	format, bodyValue := parseBody(r.Header.Get("Content-Type"), body)

	return RequestInput{
		Value: domain.Object(
			domain.Field{Key: InputBody, Value: bodyValue},
			domain.Field{Key: InputQuery, Value: valuesToObject(r.URL.Query())},
			domain.Field{Key: InputParams, Value: pathParams(r.URL.Path)},
		),
		format: format,
	}
}

func parseBody(contentType string, body []byte) (bodyFormat, domain.Value) {
	if len(body) == 0 {
		return bodyNone, domain.Null()
	}

	mediaType := ""
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			mediaType = mt
		}
	}

	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		if !gjson.ValidBytes(body) {
			// still scanned, just not structurally
			return bodyText, domain.String(string(body))
		}
		return bodyJSON, FromJSON(gjson.ParseBytes(body))
	case mediaType == "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return bodyText, domain.String(string(body))
		}
		return bodyForm, valuesToObject(values)
	case mediaType == "" || strings.HasPrefix(mediaType, "text/"),
		mediaType == "application/xml", mediaType == "application/graphql":
		return bodyText, domain.String(string(body))
	}

	return bodyNone, domain.Null()
}

// FromJSON converts a parsed gjson document into a domain.Value, keeping
// object members in document order
func FromJSON(result gjson.Result) domain.Value {
	return fromResult(result, 0)
}

func fromResult(result gjson.Result, depth int) domain.Value {
	switch result.Type {
	case gjson.Null:
		return domain.Null()
	case gjson.False:
		return domain.Boolean(false)
	case gjson.True:
		return domain.Boolean(true)
	case gjson.Number:
		return domain.NumberLiteral(result.Raw, result.Num)
	case gjson.String:
		return domain.String(result.Str)
	case gjson.JSON:
		if depth >= maxInputDepth {
			return domain.String(result.Raw)
		}
		if result.IsArray() {
			var items []domain.Value
			result.ForEach(func(_, item gjson.Result) bool {
				items = append(items, fromResult(item, depth+1))
				return true
			})
			return domain.Array(items...)
		}
		var fields []domain.Field
		result.ForEach(func(key, value gjson.Result) bool {
			fields = append(fields, domain.Field{Key: key.Str, Value: fromResult(value, depth+1)})
			return true
		})
		return domain.Object(fields...)
	}
	return domain.Null()
}

// valuesToObject maps url.Values to an object with sorted keys; repeated
// keys become arrays
func valuesToObject(values url.Values) domain.Value {
	if len(values) == 0 {
		return domain.Object()
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]domain.Field, 0, len(keys))
	for _, k := range keys {
		vs := values[k]
		if len(vs) == 1 {
			fields = append(fields, domain.Field{Key: k, Value: domain.String(vs[0])})
			continue
		}
		items := make([]domain.Value, len(vs))
		for i, v := range vs {
			items[i] = domain.String(v)
		}
		fields = append(fields, domain.Field{Key: k, Value: domain.Array(items...)})
	}
	return domain.Object(fields...)
}

func objectToValues(v domain.Value) url.Values {
	values := make(url.Values, len(v.Fields))
	for _, f := range v.Fields {
		switch f.Value.Kind {
		case domain.KindString:
			values.Add(f.Key, f.Value.Str)
		case domain.KindArray:
			for _, item := range f.Value.Items {
				values.Add(f.Key, item.Str)
			}
		}
	}
	return values
}

// pathParams are the non-empty path segments, as written
func pathParams(path string) domain.Value {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	items := make([]domain.Value, 0, len(segments))
	for _, seg := range segments {
		if seg != "" {
			items = append(items, domain.String(seg))
		}
	}
	return domain.Array(items...)
}
