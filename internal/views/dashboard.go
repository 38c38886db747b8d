package views

import (
	"math"
	"time"

	"github.com/subtech/mina-dashboard/internal/location"
	"github.com/subtech/mina-dashboard/internal/tags"
)

// TagRow is a tag ready for display.
type TagRow struct {
	Tag           tags.Tag              `json:"tag"`
	CategoryLabel string                `json:"category_label"`
	Fecha         string                `json:"fecha"`
	Hora          string                `json:"hora"`
	Location      location.Presentation `json:"location"`
	Interior      bool                  `json:"interior"`
}

// CategorySection is one category block of the dashboard: the latest
// record of each etiqueta plus how many of them are inside the mine.
type CategorySection struct {
	tags.Category
	Latest   []TagRow `json:"latest"`
	Total    int      `json:"total"`
	Interior int      `json:"interior"`
	Percent  int      `json:"percent"`
}

type Dashboard struct {
	Sections []CategorySection `json:"sections"`
	History  []TagRow          `json:"history"`
	Filter   string            `json:"filter,omitempty"`
}

// Rows formats tags in order.
func Rows(in []tags.Tag, loc *time.Location) []TagRow {
	out := make([]TagRow, 0, len(in))
	for _, t := range in {
		label := t.Categoria
		if c, ok := tags.LookupCategory(t.Categoria); ok {
			label = c.Label
		}
		out = append(out, TagRow{
			Tag:           t,
			CategoryLabel: label,
			Fecha:         tags.FormatDate(t.Timestap, loc),
			Hora:          tags.FormatTime(t.Timestap, loc),
			Location:      location.Present(t.Ubicacion),
			Interior:      location.IsInterior(t.Ubicacion),
		})
	}
	return out
}

// InteriorPercent is round(interior/total*100), 0 for an empty total.
func InteriorPercent(interior, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(interior) / float64(total) * 100))
}

// BuildDashboard projects a snapshot into category sections and the
// filtered history.
func BuildDashboard(all []tags.Tag, filter string, loc *time.Location) Dashboard {
	byCategory := tags.GroupByCategory(all)

	sections := make([]CategorySection, 0, len(tags.Categories))
	for _, c := range tags.Categories {
		latest := tags.LatestPerEtiqueta(byCategory[c.Key])
		rows := Rows(latest, loc)
		interior := 0
		for _, r := range rows {
			if r.Interior {
				interior++
			}
		}
		sections = append(sections, CategorySection{
			Category: c,
			Latest:   rows,
			Total:    len(rows),
			Interior: interior,
			Percent:  InteriorPercent(interior, len(rows)),
		})
	}

	return Dashboard{
		Sections: sections,
		History:  Rows(tags.History(all, filter), loc),
		Filter:   filter,
	}
}
