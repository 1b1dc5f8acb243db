package models

import (
	"sort"
	"strings"
)

// ReportCategory is the closed set of environmental issue kinds.
type ReportCategory string

const (
	CategoryTrash          ReportCategory = "TRASH"
	CategoryPollution      ReportCategory = "POLLUTION"
	CategoryDeforestation  ReportCategory = "DEFORESTATION"
	CategoryWaterPollution ReportCategory = "WATER_POLLUTION"
	CategoryAirPollution   ReportCategory = "AIR_POLLUTION"
	CategoryWildlife       ReportCategory = "WILDLIFE"
	CategoryNoise          ReportCategory = "NOISE"
	CategorySoil           ReportCategory = "SOIL"
	CategoryAnimal         ReportCategory = "ANIMAL"
	CategoryOther          ReportCategory = "OTHER"
)

// CategoryMetadata is the display and reward data attached to a category.
type CategoryMetadata struct {
	Category    ReportCategory `json:"category"`
	Title       string         `json:"title"`
	Icon        string         `json:"icon"`
	BasePoints  int            `json:"base_points"`
	Description string         `json:"description"`
	Tips        []string       `json:"tips"`
	Color       string         `json:"color"`
}

// categoryCatalog is populated once at init and only read afterwards.
var categoryCatalog = map[ReportCategory]CategoryMetadata{
	CategoryTrash: {
		Title: "Trash", Icon: "🗑️", BasePoints: 10, Color: "#FF9800",
		Description: "Accumulated garbage, solid waste or debris in public spaces",
		Tips:        []string{"Use the proper waste containers", "Cut down on single-use plastics", "Join community clean-up days"},
	},
	CategoryPollution: {
		Title: "Pollution", Icon: "💨", BasePoints: 15, Color: "#9C27B0",
		Description: "General contamination of the environment",
		Tips:        []string{"Take public transport or cycle", "Never burn garbage", "Report illegal emissions"},
	},
	CategoryDeforestation: {
		Title: "Deforestation", Icon: "🌳", BasePoints: 20, Color: "#8BC34A",
		Description: "Illegal logging or destruction of green areas",
		Tips:        []string{"Plant native trees", "Report illegal logging", "Support reforestation projects"},
	},
	CategoryWaterPollution: {
		Title: "Water pollution", Icon: "💧", BasePoints: 25, Color: "#2196F3",
		Description: "Contamination of rivers, lakes, beaches or water sources",
		Tips:        []string{"Do not throw waste into water", "Prefer biodegradable products", "Report chemical spills"},
	},
	CategoryAirPollution: {
		Title: "Air pollution", Icon: "🌫️", BasePoints: 20, Color: "#607D8B",
		Description: "Polluting emissions, smoke or foul odours",
		Tips:        []string{"Keep your vehicle well maintained", "Use renewable energy", "Avoid unnecessary bonfires"},
	},
	CategoryWildlife: {
		Title: "Wildlife", Icon: "🦋", BasePoints: 30, Color: "#4CAF50",
		Description: "Problems affecting local wildlife",
		Tips:        []string{"Do not feed wild animals", "Respect natural habitats", "Report illegal activity"},
	},
	CategoryNoise: {
		Title: "Noise", Icon: "🔊", BasePoints: 15, Color: "#FF5722",
		Description: "Excessive noise pollution",
		Tips:        []string{"Respect quiet hours", "Use headphones in public spaces", "Keep volume moderate"},
	},
	CategorySoil: {
		Title: "Soil contamination", Icon: "🌍", BasePoints: 18, Color: "#795548",
		Description: "Contamination of soil or land",
		Tips:        []string{"Avoid excessive use of chemicals", "Practise sustainable farming", "Report illegal dumping"},
	},
	CategoryAnimal: {
		Title: "Animal abuse", Icon: "🐾", BasePoints: 25, Color: "#E91E63",
		Description: "Mistreatment or abandonment of animals",
		Tips:        []string{"Adopt, don't shop", "Spay and neuter your pets", "Report cases of abuse"},
	},
	CategoryOther: {
		Title: "Other", Icon: "📝", BasePoints: 5, Color: "#9E9E9E",
		Description: "Other uncategorised environmental problems",
		Tips:        []string{"Stay informed about environmental issues", "Take part in community initiatives", "Report anything you notice"},
	},
}

func init() {
	for category, meta := range categoryCatalog {
		meta.Category = category
		categoryCatalog[category] = meta
	}
}

// Valid reports whether c is a member of the catalog.
func (c ReportCategory) Valid() bool {
	_, ok := categoryCatalog[c]
	return ok
}

// BasePoints returns the eco-points a report of this category is worth.
// Unknown categories are worth zero.
func (c ReportCategory) BasePoints() int {
	return categoryCatalog[c].BasePoints
}

// Metadata returns the catalog entry for c.
func (c ReportCategory) Metadata() (CategoryMetadata, bool) {
	meta, ok := categoryCatalog[c]
	if !ok {
		return CategoryMetadata{}, false
	}
	meta.Tips = append([]string(nil), meta.Tips...)
	return meta, true
}

// ParseCategory maps an external name to a category, ignoring case and
// surrounding whitespace.
func ParseCategory(raw string) (ReportCategory, bool) {
	c := ReportCategory(strings.ToUpper(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", false
	}
	return c, true
}

// Categories lists every category sorted by tag.
func Categories() []ReportCategory {
	out := make([]ReportCategory, 0, len(categoryCatalog))
	for c := range categoryCatalog {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CategoryCatalog returns the metadata of every category sorted by tag.
func CategoryCatalog() []CategoryMetadata {
	cats := Categories()
	out := make([]CategoryMetadata, 0, len(cats))
	for _, c := range cats {
		meta, _ := c.Metadata()
		out = append(out, meta)
	}
	return out
}
