package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleSet() []Tag {
	return []Tag{
		{ID: "a", Timestap: 1, Categoria: "Personal", Etiqueta: "Juan", Ubicacion: "Niveles Medios"},
		{ID: "b", Timestap: 2, Categoria: "Maquinaria", Etiqueta: "CAEX-12", Ubicacion: "Exterior Mina - 840"},
		{ID: "c", Timestap: 3, Categoria: "Flota Vehicular", Etiqueta: "Camioneta 4", Ubicacion: "Niveles Inferiores"},
	}
}

func TestFingerprint(t *testing.T) {
	tag := Tag{Timestap: 1700000000000, Categoria: "Personal", Etiqueta: "Juan", Ubicacion: "Niveles Medios"}
	assert.Equal(t, "1700000000000|Personal|Juan|Niveles Medios", Fingerprint(tag))
}

func TestHasMeaningfulChanges_Reflexive(t *testing.T) {
	a := sampleSet()
	assert.False(t, HasMeaningfulChanges(a, a))
	assert.False(t, HasMeaningfulChanges(nil, nil))
	assert.False(t, HasMeaningfulChanges([]Tag{}, nil))
}

func TestHasMeaningfulChanges_PermutationIsNotChange(t *testing.T) {
	a := sampleSet()
	b := []Tag{a[2], a[0], a[1]}
	assert.False(t, HasMeaningfulChanges(a, b))
}

func TestHasMeaningfulChanges_Length(t *testing.T) {
	a := sampleSet()
	extra := append(append([]Tag{}, a...), Tag{ID: "d", Etiqueta: "Pedro"})
	assert.True(t, HasMeaningfulChanges(a, extra))
	assert.True(t, HasMeaningfulChanges(extra, a))
}

func TestHasMeaningfulChanges_FieldChange(t *testing.T) {
	a := sampleSet()
	b := append([]Tag{}, a...)
	b[1].Ubicacion = "Niveles Superiores"
	assert.True(t, HasMeaningfulChanges(a, b))
}

func TestHasMeaningfulChanges_UnknownID(t *testing.T) {
	a := sampleSet()
	b := append([]Tag{}, a...)
	b[0].ID = "z"
	assert.True(t, HasMeaningfulChanges(a, b))
}

func TestHasMeaningfulChanges_IgnoresSubcategoriaAndPortico(t *testing.T) {
	a := sampleSet()
	b := append([]Tag{}, a...)
	b[0].Subcategoria = "Visita"
	b[0].Portico = "P-9"
	assert.False(t, HasMeaningfulChanges(a, b))
}
