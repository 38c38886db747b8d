package location

import (
	"strings"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Status is one of the known mine location states.
type Status string

const (
	UpperLevels  Status = "Niveles Superiores"
	MiddleLevels Status = "Niveles Medios"
	LowerLevels  Status = "Niveles Inferiores"
	Exterior     Status = "Exterior Mina - 840"
	Unknown      Status = "Ubicación desconocida"
)

// Levels are the interior levels, top to bottom.
var Levels = []Status{UpperLevels, MiddleLevels, LowerLevels}

// Palette is the color set used to badge a location.
type Palette struct {
	Color      string `json:"color"`
	Background string `json:"background"`
	Border     string `json:"border"`
}

var palettes = map[Status]Palette{
	UpperLevels:  {"#0A84FF", "rgba(10, 132, 255, 0.14)", "rgba(10, 132, 255, 0.36)"},
	MiddleLevels: {"#009688", "rgba(0, 150, 136, 0.14)", "rgba(0, 150, 136, 0.34)"},
	LowerLevels:  {"#E67E22", "rgba(230, 126, 34, 0.14)", "rgba(230, 126, 34, 0.34)"},
	Exterior:     {"#265291", "rgba(38, 82, 145, 0.12)", "rgba(38, 82, 145, 0.32)"},
	Unknown:      {"#667085", "rgba(102, 112, 133, 0.12)", "rgba(102, 112, 133, 0.32)"},
}

// Presentation is how a raw ubicacion string is displayed.
type Presentation struct {
	Status Status `json:"status"`
	Label  string `json:"label"`
	Palette
}

// Normalize trims, lowercases, strips diacritics and collapses whitespace.
func Normalize(value string) string {
	s := strings.ToLower(strings.TrimSpace(value))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}
	return strings.Join(strings.Fields(s), " ")
}

// Resolve maps a raw location onto a known status. ok is false when the
// location is non-empty but matches nothing.
func Resolve(value string) (Status, bool) {
	n := Normalize(value)
	switch {
	case n == "":
		return Unknown, true
	case strings.Contains(n, "niveles superiores"):
		return UpperLevels, true
	case strings.Contains(n, "niveles medios"):
		return MiddleLevels, true
	case strings.Contains(n, "niveles inferiores"):
		return LowerLevels, true
	case strings.Contains(n, "exterior mina"):
		return Exterior, true
	case strings.Contains(n, "desconocid"):
		return Unknown, true
	}
	return Unknown, false
}

// Resolver memoizes presentations; tag sets repeat the same handful of
// location strings on every render.
type Resolver struct {
	cache *lru.Cache[string, Presentation]
}

func NewResolver(size int) *Resolver {
	if size <= 0 {
		size = 256
	}
	c, _ := lru.New[string, Presentation](size)
	return &Resolver{cache: c}
}

// Present returns the status, label and palette for a raw location. An
// unmatched location keeps its raw text as label.
func (r *Resolver) Present(value string) Presentation {
	if p, ok := r.cache.Get(value); ok {
		return p
	}

	raw := strings.TrimSpace(value)
	status, known := Resolve(raw)
	label := string(status)
	if !known && raw != "" {
		label = raw
	}
	p := Presentation{Status: status, Label: label, Palette: palettes[status]}
	r.cache.Add(value, p)
	return p
}

// IsInterior reports whether the location is inside the mine: one of the
// interior levels, or any location whose text says "interior". Everything
// else counts as exterior.
func (r *Resolver) IsInterior(value string) bool {
	switch r.Present(value).Status {
	case UpperLevels, MiddleLevels, LowerLevels:
		return true
	}
	return strings.Contains(Normalize(value), "interior")
}

var defaultResolver = NewResolver(512)

// Present uses the package-level resolver.
func Present(value string) Presentation { return defaultResolver.Present(value) }

// IsInterior uses the package-level resolver.
func IsInterior(value string) bool { return defaultResolver.IsInterior(value) }
