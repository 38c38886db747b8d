package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ubicacion desconocida", Normalize("  Ubicación   DESCONOCIDA "))
	assert.Equal(t, "niveles medios", Normalize("Niveles\tMedios"))
	assert.Equal(t, "", Normalize("   "))
}

func TestResolve(t *testing.T) {
	cases := []struct {
		in     string
		status Status
		known  bool
	}{
		{"Niveles Superiores", UpperLevels, true},
		{"nivel 3 - NIVELES MEDIOS", MiddleLevels, true},
		{"Niveles Inferiores", LowerLevels, true},
		{"Exterior Mina - 840", Exterior, true},
		{"exterior mina", Exterior, true},
		{"Ubicacion desconocida", Unknown, true},
		{"", Unknown, true},
		{"Taller central", Unknown, false},
	}
	for _, tc := range cases {
		status, known := Resolve(tc.in)
		assert.Equal(t, tc.status, status, tc.in)
		assert.Equal(t, tc.known, known, tc.in)
	}
}

func TestPresent_Labels(t *testing.T) {
	r := NewResolver(8)

	p := r.Present("  niveles medios ")
	assert.Equal(t, MiddleLevels, p.Status)
	assert.Equal(t, "Niveles Medios", p.Label)
	assert.Equal(t, "#009688", p.Color)

	p = r.Present("Taller central")
	assert.Equal(t, Unknown, p.Status)
	assert.Equal(t, "Taller central", p.Label)
	assert.Equal(t, "#667085", p.Color)

	p = r.Present("")
	assert.Equal(t, "Ubicación desconocida", p.Label)
}

func TestPresent_Memoized(t *testing.T) {
	r := NewResolver(8)
	first := r.Present("Exterior Mina - 840")
	assert.Equal(t, 1, r.cache.Len())
	assert.Equal(t, first, r.Present("Exterior Mina - 840"))
	assert.Equal(t, 1, r.cache.Len())
}

func TestIsInterior(t *testing.T) {
	assert.True(t, IsInterior("Niveles Superiores"))
	assert.True(t, IsInterior("NIVELES MEDIOS"))
	assert.True(t, IsInterior("Niveles Inferiores"))
	assert.False(t, IsInterior("Exterior Mina - 840"))
	assert.True(t, IsInterior("Interior Mina"))
	assert.False(t, IsInterior("Taller central"))
	assert.False(t, IsInterior(""))
}
