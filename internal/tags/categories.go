package tags

// Category is one of the fixed tag categories shown on the dashboard.
type Category struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Accent string `json:"accent"`
}

var Categories = []Category{
	{Key: "Personal", Label: "Personas", Accent: "#6FB0E2"},
	{Key: "Maquinaria", Label: "Camiones", Accent: "#265291"},
	{Key: "Flota Vehicular", Label: "Vehículos", Accent: "#D4A700"},
}

// LookupCategory returns the category with the given key.
func LookupCategory(key string) (Category, bool) {
	for _, c := range Categories {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}
