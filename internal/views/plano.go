package views

import (
	"time"

	"github.com/subtech/mina-dashboard/internal/location"
	"github.com/subtech/mina-dashboard/internal/tags"
)

// LevelCard counts the latest entities at one location, per category.
type LevelCard struct {
	Ubicacion string           `json:"ubicacion"`
	Palette   location.Palette `json:"palette"`
	Counts    map[string]int   `json:"counts"`
	Total     int              `json:"total"`
}

type Plano struct {
	Levels   []LevelCard `json:"levels"`
	Exterior LevelCard   `json:"exterior"`
}

func levelCard(byUbicacion map[string][]tags.Tag, status location.Status) LevelCard {
	counts := tags.CountsFor(byUbicacion, string(status))
	total := 0
	for _, n := range counts {
		total += n
	}
	return LevelCard{
		Ubicacion: string(status),
		Palette:   location.Present(string(status)).Palette,
		Counts:    counts,
		Total:     total,
	}
}

// BuildPlano counts the latest record of each etiqueta by exact ubicacion
// for the three levels and the exterior.
func BuildPlano(all []tags.Tag) Plano {
	byUbicacion := tags.GroupByUbicacion(tags.LatestPerEtiqueta(all))

	p := Plano{Levels: make([]LevelCard, 0, len(location.Levels))}
	for _, lvl := range location.Levels {
		p.Levels = append(p.Levels, levelCard(byUbicacion, lvl))
	}
	p.Exterior = levelCard(byUbicacion, location.Exterior)
	return p
}

// Sidebar lists the latest records at ubicacion of the given category.
func Sidebar(all []tags.Tag, ubicacion, categoria string, loc *time.Location) []TagRow {
	byUbicacion := tags.GroupByUbicacion(tags.LatestPerEtiqueta(all))
	return Rows(tags.FilterCategory(byUbicacion[ubicacion], categoria), loc)
}
