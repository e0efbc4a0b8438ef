package models

// ValueCount is one distinct value of a field and how many listings carry it.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// NumericRange is the spread of a numeric field. All zero when nothing matched.
type NumericRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`

	// Samples is the number of non-null values aggregated.
	Samples int `json:"-"`
}

// Suggestion is one autocomplete entry.
type Suggestion struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Label string `json:"label"`
}

// Feature labels offered as filter options.
var PropertyFeatures = []string{
	"Garage", "Piscine", "Climatisation", "Ascenseur", "Meublé", "Cuisine équipée",
	"Chauffage", "Sécurité", "Terrasse", "Jardin", "Parking", "Cave", "Balcon",
}

var ProjectAmenities = []string{
	"Piscine", "Salle de sport", "Gardiennage 24/7", "Parking", "Ascenseur", "Jardin", "Terrasse", "Balcon",
}

// Governorates of Tunisia, offered as location choices whether or not any
// listing uses them yet.
var Governorates = []string{
	"Tunis", "Ariana", "Ben Arous", "Manouba", "Nabeul", "Zaghouan",
	"Bizerte", "Béja", "Jendouba", "Kef", "Siliana", "Sousse",
	"Monastir", "Mahdia", "Sfax", "Kairouan", "Kasserine", "Sidi Bouzid",
	"Gabès", "Médenine", "Tataouine", "Gafsa", "Tozeur", "Kébili",
}
