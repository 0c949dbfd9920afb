package domain

// Category is one of the fixed article categories used by the site.
type Category string

const (
	CategoryTextile      Category = "текстиль"
	CategoryConstruction Category = "будівництво"
	CategoryAgro         Category = "агро"
	CategoryBioplastic   Category = "біопластик"
	CategoryAutomotive   Category = "автопром"
	CategoryFood         Category = "харчова"
	CategoryEnergy       Category = "енергетика"
	CategoryCosmetics    Category = "косметика"
	CategoryLegislation  Category = "законодавство"
	CategoryScience      Category = "наука"
	CategoryEcology      Category = "екологія"
	CategoryBusiness     Category = "бізнес"
	CategoryOther        Category = "інше"
)

// Categories lists every accepted category in display order.
var Categories = []Category{
	CategoryTextile,
	CategoryConstruction,
	CategoryAgro,
	CategoryBioplastic,
	CategoryAutomotive,
	CategoryFood,
	CategoryEnergy,
	CategoryCosmetics,
	CategoryLegislation,
	CategoryScience,
	CategoryEcology,
	CategoryBusiness,
	CategoryOther,
}

var categoryImageQueries = map[Category]string{
	CategoryTextile:      "hemp textile fabric",
	CategoryConstruction: "hempcrete construction building",
	CategoryAgro:         "hemp field agriculture",
	CategoryBioplastic:   "bioplastic sustainable material",
	CategoryAutomotive:   "car interior natural fiber",
	CategoryFood:         "hemp seeds food healthy",
	CategoryEnergy:       "renewable energy biomass",
	CategoryCosmetics:    "natural cosmetics skincare",
	CategoryLegislation:  "government legislation document",
	CategoryScience:      "science laboratory research",
	CategoryEcology:      "green nature sustainability",
	CategoryBusiness:     "business industry factory",
	CategoryOther:        "hemp plant industrial",
}

var categoryEmoji = map[Category]string{
	CategoryTextile:      "🧵",
	CategoryConstruction: "🏗",
	CategoryAgro:         "🌾",
	CategoryBioplastic:   "♻️",
	CategoryAutomotive:   "🚗",
	CategoryFood:         "🥗",
	CategoryEnergy:       "⚡",
	CategoryCosmetics:    "🧴",
	CategoryLegislation:  "⚖️",
	CategoryScience:      "🔬",
	CategoryEcology:      "🌍",
	CategoryBusiness:     "💼",
	CategoryOther:        "🌿",
}

// Valid reports whether c belongs to the fixed category set.
func (c Category) Valid() bool {
	_, ok := categoryImageQueries[c]
	return ok
}

// ImageQuery returns the stock-photo query used when no better hint exists.
func (c Category) ImageQuery() string {
	if q, ok := categoryImageQueries[c]; ok {
		return q
	}
	return categoryImageQueries[CategoryOther]
}

// Emoji returns the marker used in channel posts.
func (c Category) Emoji() string {
	if e, ok := categoryEmoji[c]; ok {
		return e
	}
	return categoryEmoji[CategoryOther]
}
