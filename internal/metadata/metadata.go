package metadata

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"scirag/internal/domain"
)

// Record is a validated metadata record: values are either a string or a
// []string, as dictated by the domain schema.
type Record map[string]any

var fenceRE = regexp.MustCompile("(?i)^```(?:json)?|```$")

// SafeJSON strips any code-fence markers from raw model output and
// attempts to parse it as a JSON object. On any failure it returns an
// empty map: an empty record degrades retrieval to pure semantic search
// instead of aborting the query.
func SafeJSON(raw string) map[string]any {
	cleaned := strings.TrimSpace(fenceRE.ReplaceAllString(strings.TrimSpace(raw), ""))
	var out map[string]any
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return map[string]any{}
	}
	return out
}

// Validate filters a raw parsed mapping against the domain schema.
// Unknown attributes are dropped, and values are coerced to the schema's
// kind; values that cannot be coerced are dropped.
func Validate(raw map[string]any, schema domain.Schema) Record {
	rec := make(Record)
	for key, kind := range schema {
		val, ok := raw[key]
		if !ok || val == nil {
			continue
		}
		switch kind {
		case domain.KindText:
			if s := coerceText(val); s != "" {
				rec[key] = s
			}
		case domain.KindTextList:
			if xs := coerceTextList(val); len(xs) > 0 {
				rec[key] = xs
			}
		}
	}
	return rec
}

func coerceText(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strings.TrimSpace(fmt.Sprint(x))
	case bool:
		return fmt.Sprint(x)
	default:
		return ""
	}
}

func coerceTextList(v any) []string {
	switch x := v.(type) {
	case []any:
		var out []string
		for _, e := range x {
			if s := coerceText(e); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(x); s != "" {
			return []string{s}
		}
		return nil
	default:
		return nil
	}
}

// Flatten converts a metadata record so that every value is a string:
// lists are joined with "; " (non-string elements serialized as JSON),
// nested mappings become JSON text, scalars are stringified.
func Flatten(meta map[string]any) map[string]string {
	flat := make(map[string]string, len(meta))
	for k, v := range meta {
		flat[k] = flattenValue(v)
	}
	return flat
}

func flattenValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []string:
		return strings.Join(x, "; ")
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			switch el := e.(type) {
			case string:
				parts = append(parts, el)
			case map[string]any:
				b, err := json.Marshal(el)
				if err != nil {
					parts = append(parts, fmt.Sprint(el))
					continue
				}
				parts = append(parts, string(b))
			default:
				parts = append(parts, fmt.Sprint(el))
			}
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}
