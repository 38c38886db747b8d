package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subtech/mina-dashboard/internal/location"
	"github.com/subtech/mina-dashboard/internal/tags"
)

func fixture() []tags.Tag {
	return []tags.Tag{
		{ID: "p1", Etiqueta: "Juan", Categoria: "Personal", Timestap: 1000, Ubicacion: "Niveles Superiores"},
		{ID: "p2", Etiqueta: "Juan", Categoria: "Personal", Timestap: 2000, Ubicacion: "Exterior Mina - 840"},
		{ID: "p3", Etiqueta: "Ana", Categoria: "Personal", Timestap: 1500, Ubicacion: "Niveles Medios"},
		{ID: "m1", Etiqueta: "CAM-1", Categoria: "Maquinaria", Timestap: 1700000000000, Ubicacion: "Niveles Inferiores"},
		{ID: "x1", Etiqueta: "Otro", Categoria: "Otro", Timestap: 900, Ubicacion: "Niveles Superiores"},
	}
}

func TestNavLinks(t *testing.T) {
	assert.Equal(t, []NavLink{
		{Label: "Dashboard", Href: "/dashboard"},
		{Label: "Plano", Href: "/plano"},
	}, NavLinks("operator"))

	admin := NavLinks("admin")
	require.Len(t, admin, 3)
	assert.Equal(t, NavLink{Label: "Usuarios", Href: "/usuarios"}, admin[2])
}

func TestInteriorPercent(t *testing.T) {
	assert.Equal(t, 0, InteriorPercent(0, 0))
	assert.Equal(t, 50, InteriorPercent(1, 2))
	assert.Equal(t, 33, InteriorPercent(1, 3))
	assert.Equal(t, 67, InteriorPercent(2, 3))
	assert.Equal(t, 100, InteriorPercent(4, 4))
}

func TestRows_CategoryLabel(t *testing.T) {
	rows := Rows(fixture(), time.UTC)

	assert.Equal(t, "Personas", rows[0].CategoryLabel)
	assert.Equal(t, "Camiones", rows[3].CategoryLabel)
	// Unknown categories show their raw value.
	assert.Equal(t, "Otro", rows[4].CategoryLabel)
}

func TestBuildDashboard_Sections(t *testing.T) {
	d := BuildDashboard(fixture(), "", time.UTC)

	require.Len(t, d.Sections, 3)

	personal := d.Sections[0]
	assert.Equal(t, "Personal", personal.Key)
	assert.Equal(t, "Personas", personal.Label)
	require.Len(t, personal.Latest, 2)
	assert.Equal(t, "p2", personal.Latest[0].Tag.ID)
	assert.Equal(t, "p3", personal.Latest[1].Tag.ID)
	assert.Equal(t, 2, personal.Total)
	assert.Equal(t, 1, personal.Interior)
	assert.Equal(t, 50, personal.Percent)

	machines := d.Sections[1]
	assert.Equal(t, 1, machines.Interior)
	assert.Equal(t, 100, machines.Percent)
	assert.Equal(t, "14/11/2023", machines.Latest[0].Fecha)
	assert.Equal(t, "22:13:20", machines.Latest[0].Hora)
	assert.Equal(t, location.LowerLevels, machines.Latest[0].Location.Status)

	fleet := d.Sections[2]
	assert.Empty(t, fleet.Latest)
	assert.Equal(t, 0, fleet.Percent)

	// History keeps every record, unknown categories included.
	assert.Len(t, d.History, 5)
	assert.Equal(t, "m1", d.History[0].Tag.ID)
}

func TestBuildDashboard_HistoryFilter(t *testing.T) {
	d := BuildDashboard(fixture(), "AN", time.UTC)

	ids := make([]string, 0, len(d.History))
	for _, r := range d.History {
		ids = append(ids, r.Tag.ID)
	}
	assert.Equal(t, []string{"p2", "p3", "p1"}, ids)
	assert.Equal(t, "AN", d.Filter)
}

func TestBuildPlano(t *testing.T) {
	p := BuildPlano(fixture())

	require.Len(t, p.Levels, 3)

	upper := p.Levels[0]
	assert.Equal(t, "Niveles Superiores", upper.Ubicacion)
	// Juan moved out and "Otro" is not a known category.
	assert.Equal(t, 0, upper.Total)

	middle := p.Levels[1]
	assert.Equal(t, 1, middle.Counts["Personal"])
	assert.Equal(t, 1, middle.Total)

	lower := p.Levels[2]
	assert.Equal(t, 1, lower.Counts["Maquinaria"])

	assert.Equal(t, "Exterior Mina - 840", p.Exterior.Ubicacion)
	assert.Equal(t, 1, p.Exterior.Counts["Personal"])
	assert.Equal(t, 0, p.Exterior.Counts["Flota Vehicular"])
	assert.Equal(t, "#265291", p.Exterior.Palette.Color)
}

func TestSidebar(t *testing.T) {
	rows := Sidebar(fixture(), "Niveles Medios", "Personal", time.UTC)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ana", rows[0].Tag.Etiqueta)

	assert.Empty(t, Sidebar(fixture(), "Niveles Superiores", "Personal", time.UTC))
}

func TestSummarize(t *testing.T) {
	s := Summarize(fixture())

	assert.Equal(t, 5, s.Records)
	assert.Equal(t, 4, s.Latest)
	assert.Equal(t, 3, s.Interior)
	assert.Equal(t, map[string]int{"Personal": 1, "Maquinaria": 1, "Flota Vehicular": 0}, s.InteriorByCategory)
}
