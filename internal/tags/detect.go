package tags

import (
	"strconv"
	"strings"
)

// Fingerprint is the part of a tag that matters for display:
// timestap|categoria|etiqueta|ubicacion. subcategoria and portico are not
// part of it.
func Fingerprint(t Tag) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(t.Timestap, 10))
	b.WriteByte('|')
	b.WriteString(t.Categoria)
	b.WriteByte('|')
	b.WriteString(t.Etiqueta)
	b.WriteByte('|')
	b.WriteString(t.Ubicacion)
	return b.String()
}

// HasMeaningfulChanges reports whether next differs from prev in a way the
// views would render differently. Comparison is by id, so a permutation
// of the same records is not a change.
func HasMeaningfulChanges(prev, next []Tag) bool {
	if len(prev) != len(next) {
		return true
	}

	prevByID := make(map[string]string, len(prev))
	for _, t := range prev {
		prevByID[t.ID] = Fingerprint(t)
	}

	for _, t := range next {
		fp, ok := prevByID[t.ID]
		if !ok || fp != Fingerprint(t) {
			return true
		}
	}
	return false
}
