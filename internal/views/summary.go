package views

import (
	"github.com/subtech/mina-dashboard/internal/location"
	"github.com/subtech/mina-dashboard/internal/tags"
)

// Summary condenses a snapshot for events, archive rows and gauges.
type Summary struct {
	Records            int            `json:"records"`
	Latest             int            `json:"latest"`
	Interior           int            `json:"interior"`
	InteriorByCategory map[string]int `json:"interior_by_category"`
}

func Summarize(all []tags.Tag) Summary {
	latest := tags.LatestPerEtiqueta(all)
	s := Summary{
		Records:            len(all),
		Latest:             len(latest),
		InteriorByCategory: make(map[string]int, len(tags.Categories)),
	}
	for _, c := range tags.Categories {
		s.InteriorByCategory[c.Key] = 0
	}
	for _, t := range latest {
		if !location.IsInterior(t.Ubicacion) {
			continue
		}
		s.Interior++
		if _, ok := s.InteriorByCategory[t.Categoria]; ok {
			s.InteriorByCategory[t.Categoria]++
		}
	}
	return s
}
