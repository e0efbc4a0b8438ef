package filters

// MaxPerPage caps every listing page.
const MaxPerPage = 50

// MaxPage bounds the page number so the row offset stays small.
const MaxPage = 100000

// Defaults are the pagination and ordering used when a request does not
// specify them.
type Defaults struct {
	PerPage int
	Sort    Sort
}

var (
	PropertyListing     = Defaults{PerPage: 12, Sort: Sort{Field: SortCreatedAt, Desc: true}}
	ProjectListing      = Defaults{PerPage: 12, Sort: Sort{Field: SortCreatedAt, Desc: true}}
	ProjectUnitsListing = Defaults{PerPage: 20, Sort: Sort{Field: SortPrice}}
	AdminListing        = Defaults{PerPage: 20, Sort: Sort{Field: SortCreatedAt, Desc: true}}
)

// Sort fields accepted from clients.
const (
	SortPrice          = "price"
	SortSurface        = "surface"
	SortCreatedAt      = "created_at"
	SortPublishedDate  = "published_date"
	SortViews          = "views"
	SortBedrooms       = "bedrooms"
	SortBathrooms      = "bathrooms"
	SortAvailableUnits = "available_units"
)

var propertySortFields = map[string]bool{
	SortPrice:         true,
	SortSurface:       true,
	SortCreatedAt:     true,
	SortPublishedDate: true,
	SortViews:         true,
	SortBedrooms:      true,
	SortBathrooms:     true,
}

var projectSortFields = map[string]bool{
	SortPrice:          true,
	SortCreatedAt:      true,
	SortPublishedDate:  true,
	SortViews:          true,
	SortAvailableUnits: true,
}

// featureShortcuts maps boolean query keys to the feature label they require.
var featureShortcuts = []struct {
	Param   string
	Feature string
}{
	{"piscine", "Piscine"},
	{"garage", "Garage"},
	{"climatisation", "Climatisation"},
	{"meuble", "Meublé"},
	{"cuisine_equipee", "Cuisine équipée"},
	{"chauffage", "Chauffage"},
	{"securite", "Sécurité"},
}
