package tags

import "sort"

// LatestPerEtiqueta keeps, per etiqueta, the record with the greatest
// timestap. Only a strictly greater timestap replaces the current holder,
// so on ties the first record scanned wins. The result is sorted by
// timestap, newest first.
func LatestPerEtiqueta(in []Tag) []Tag {
	idx := make(map[string]int, len(in))
	out := make([]Tag, 0, len(in))
	for _, t := range in {
		i, ok := idx[t.Etiqueta]
		if !ok {
			idx[t.Etiqueta] = len(out)
			out = append(out, t)
			continue
		}
		if t.Timestap > out[i].Timestap {
			out[i] = t
		}
	}
	SortNewestFirst(out)
	return out
}

// SortNewestFirst orders tags by timestap descending, in place. Equal
// timestamps keep their relative order.
func SortNewestFirst(ts []Tag) {
	sort.SliceStable(ts, func(i, j int) bool {
		return ts[i].Timestap > ts[j].Timestap
	})
}
