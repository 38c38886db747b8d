package tags

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_PrefersCapitalizedKeys(t *testing.T) {
	raw := RawTag{
		"UID":       "A1",
		"timestap":  float64(1000),
		"Categoria": "Personal",
		"categoria": "Maquinaria",
		"etiqueta":  "Juan",
		"Ubicacion": "Niveles Medios",
		"Portico":   "P-3",
	}

	tag := Normalize(raw)

	assert.Equal(t, "A1-1000", tag.ID)
	assert.Equal(t, "A1", tag.UID)
	assert.Equal(t, int64(1000), tag.Timestap)
	assert.Equal(t, "Personal", tag.Categoria)
	assert.Equal(t, "Juan", tag.Etiqueta)
	assert.Equal(t, "Niveles Medios", tag.Ubicacion)
	assert.Equal(t, "", tag.Subcategoria)
	assert.Equal(t, "P-3", tag.Portico)
	assert.Nil(t, tag.Extra)
}

func TestNormalize_UsesProvidedID(t *testing.T) {
	tag := Normalize(RawTag{"id": "abc", "UID": "A1", "timestap": json.Number("1700000000000")})
	assert.Equal(t, "abc", tag.ID)
	assert.Equal(t, int64(1700000000000), tag.Timestap)
}

func TestNormalize_SynthesizedIDWithoutUID(t *testing.T) {
	tag := Normalize(RawTag{"timestap": json.Number("42")})
	assert.Equal(t, "-42", tag.ID)
	assert.Equal(t, "", tag.UID)
	assert.Equal(t, "", tag.Categoria)
	assert.Equal(t, "", tag.Etiqueta)
	assert.Equal(t, "", tag.Ubicacion)
}

func TestNormalize_CanonicalInputIsStable(t *testing.T) {
	raw := RawTag{
		"id":           "x-1",
		"uid":          "x",
		"timestap":     json.Number("1"),
		"categoria":    "Personal",
		"etiqueta":     "Ana",
		"ubicacion":    "Niveles Superiores",
		"subcategoria": "Contratista",
		"portico":      "P1",
	}

	tag := Normalize(raw)

	assert.Equal(t, Tag{
		ID:           "x-1",
		UID:          "x",
		Timestap:     1,
		Categoria:    "Personal",
		Etiqueta:     "Ana",
		Ubicacion:    "Niveles Superiores",
		Subcategoria: "Contratista",
		Portico:      "P1",
	}, tag)
	assert.Equal(t, tag, Normalize(RawTag{
		"id": tag.ID, "uid": tag.UID, "timestap": tag.Timestap, "categoria": tag.Categoria,
		"etiqueta": tag.Etiqueta, "ubicacion": tag.Ubicacion, "subcategoria": tag.Subcategoria,
		"portico": tag.Portico,
	}))
}

func TestNormalize_PreservesUnknownFields(t *testing.T) {
	tag := Normalize(RawTag{"timestap": float64(5), "Bateria": float64(87), "zona": "N2"})

	assert.Equal(t, map[string]any{"Bateria": float64(87), "zona": "N2"}, tag.Extra)

	out, err := json.Marshal(tag)
	assert.NoError(t, err)
	var decoded map[string]any
	assert.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, float64(87), decoded["Bateria"])
	assert.Equal(t, "N2", decoded["zona"])
	assert.Equal(t, "-5", decoded["id"])
	assert.Equal(t, "", decoded["portico"])
}
