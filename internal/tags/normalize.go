package tags

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// fieldRule resolves one logical field: the capitalized key wins, then the
// lowercase key, then "".
type fieldRule struct {
	capitalized string
	lowercase   string
	assign      func(t *Tag, v string)
}

var fieldRules = []fieldRule{
	{"UID", "uid", func(t *Tag, v string) { t.UID = v }},
	{"Categoria", "categoria", func(t *Tag, v string) { t.Categoria = v }},
	{"Etiqueta", "etiqueta", func(t *Tag, v string) { t.Etiqueta = v }},
	{"Ubicacion", "ubicacion", func(t *Tag, v string) { t.Ubicacion = v }},
	{"Subcategoria", "subcategoria", func(t *Tag, v string) { t.Subcategoria = v }},
	{"Portico", "portico", func(t *Tag, v string) { t.Portico = v }},
}

// knownKeys are consumed by the normalizer and never copied into Extra.
var knownKeys = func() map[string]struct{} {
	m := map[string]struct{}{"id": {}, "timestap": {}}
	for _, r := range fieldRules {
		m[r.capitalized] = struct{}{}
		m[r.lowercase] = struct{}{}
	}
	return m
}()

// Normalize converts a raw record into a Tag. timestap is required; a
// record without it normalizes to timestamp 0.
func Normalize(raw RawTag) Tag {
	var t Tag
	for _, r := range fieldRules {
		r.assign(&t, lookup(raw, r.capitalized, r.lowercase))
	}
	t.Timestap = toInt64(raw["timestap"])

	if id, ok := raw["id"]; ok && id != nil {
		t.ID = toString(id)
	} else {
		t.ID = t.UID + "-" + strconv.FormatInt(t.Timestap, 10)
	}

	for k, v := range raw {
		if _, known := knownKeys[k]; known {
			continue
		}
		if t.Extra == nil {
			t.Extra = make(map[string]any)
		}
		t.Extra[k] = v
	}
	return t
}

// NormalizeAll normalizes a page of raw records in order.
func NormalizeAll(raws []RawTag) []Tag {
	out := make([]Tag, 0, len(raws))
	for _, r := range raws {
		out = append(out, Normalize(r))
	}
	return out
}

func lookup(raw RawTag, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return toString(v)
		}
	}
	return ""
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		f, _ := n.Float64()
		return int64(math.Trunc(f))
	case float64:
		return int64(math.Trunc(n))
	case int64:
		return n
	case int:
		return int64(n)
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	default:
		return 0
	}
}
