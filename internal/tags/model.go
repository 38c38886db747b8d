package tags

import (
	"encoding/json"
)

// RawTag is a mina-tags record as served by the backend. The same logical
// field may arrive as "Categoria" or "categoria".
type RawTag map[string]any

// Tag is the normalized record. Every core field is always set, empty
// string when the source record did not carry it.
type Tag struct {
	ID           string `json:"id"`
	UID          string `json:"uid"`
	Timestap     int64  `json:"timestap"`
	Categoria    string `json:"categoria"`
	Etiqueta     string `json:"etiqueta"`
	Ubicacion    string `json:"ubicacion"`
	Subcategoria string `json:"subcategoria"`
	Portico      string `json:"portico"`

	// Extra holds fields the normalizer does not know about, untouched.
	Extra map[string]any `json:"-"`
}

// PageResponse is one page of GET /mina-tags.
type PageResponse struct {
	Items            []RawTag `json:"items"`
	LastEvaluatedKey string   `json:"lastEvaluatedKey,omitempty"`
	Count            int      `json:"count"`
	HasMore          bool     `json:"hasMore"`
}

// MarshalJSON flattens Extra next to the canonical fields. Canonical
// fields win on key collisions.
func (t Tag) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(t.Extra)+8)
	for k, v := range t.Extra {
		out[k] = v
	}
	out["id"] = t.ID
	out["uid"] = t.UID
	out["timestap"] = t.Timestap
	out["categoria"] = t.Categoria
	out["etiqueta"] = t.Etiqueta
	out["ubicacion"] = t.Ubicacion
	out["subcategoria"] = t.Subcategoria
	out["portico"] = t.Portico
	return json.Marshal(out)
}
