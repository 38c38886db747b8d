package tags

import "strings"

// GroupByCategory buckets tags by the fixed categories. Every known
// category has a bucket, possibly empty; tags of unknown categories are
// dropped.
func GroupByCategory(in []Tag) map[string][]Tag {
	out := make(map[string][]Tag, len(Categories))
	for _, c := range Categories {
		out[c.Key] = []Tag{}
	}
	for _, t := range in {
		if bucket, ok := out[t.Categoria]; ok {
			out[t.Categoria] = append(bucket, t)
		}
	}
	return out
}

// GroupByUbicacion buckets tags by their exact ubicacion string.
func GroupByUbicacion(in []Tag) map[string][]Tag {
	out := make(map[string][]Tag)
	for _, t := range in {
		out[t.Ubicacion] = append(out[t.Ubicacion], t)
	}
	return out
}

// CountsFor counts, per category, the tags grouped under ubicacion.
func CountsFor(byUbicacion map[string][]Tag, ubicacion string) map[string]int {
	counts := make(map[string]int, len(Categories))
	for _, c := range Categories {
		counts[c.Key] = 0
	}
	for _, t := range byUbicacion[ubicacion] {
		if _, ok := counts[t.Categoria]; ok {
			counts[t.Categoria]++
		}
	}
	return counts
}

// FilterCategory returns the tags whose categoria is exactly key.
func FilterCategory(in []Tag, key string) []Tag {
	out := make([]Tag, 0)
	for _, t := range in {
		if t.Categoria == key {
			out = append(out, t)
		}
	}
	return out
}

// History returns a copy of all tags, newest first, keeping only those
// whose etiqueta contains filter (case-insensitive). A blank filter keeps
// everything.
func History(in []Tag, filter string) []Tag {
	sorted := make([]Tag, len(in))
	copy(sorted, in)
	SortNewestFirst(sorted)

	if strings.TrimSpace(filter) == "" {
		return sorted
	}
	q := strings.ToLower(filter)
	out := make([]Tag, 0, len(sorted))
	for _, t := range sorted {
		if strings.Contains(strings.ToLower(t.Etiqueta), q) {
			out = append(out, t)
		}
	}
	return out
}
