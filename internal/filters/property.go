package filters

import (
	"net/url"
	"time"

	"github.com/nestify/discovery/internal/models"
)

// PropertyFilter is the parsed form of a property listing request. Only
// present and valid filters are set; zero values mean "not filtered".
type PropertyFilter struct {
	Search string

	Price     Range
	Surface   Range
	Bedrooms  Range
	Bathrooms Range
	Floor     Range

	Types     []models.PropertyType
	Cities    []string
	Districts []string
	Statuses  []models.AvailabilityStatus
	ProjectID *int64

	Parking  bool
	Elevator bool
	Terrace  bool
	Garden   bool
	IsVefa   bool

	// Features must all be present on a matching property.
	Features []string

	PublishedAfter  *time.Time
	PublishedBefore *time.Time

	Sort Sort
	Page Page
}

// ParsePropertyFilter never fails: malformed values are dropped and
// pagination is clamped.
func ParsePropertyFilter(values url.Values, defaults Defaults) PropertyFilter {
	f := PropertyFilter{
		Search:    first(values, "search", "query", "q"),
		Price:     numberRange(values, "min_price", "max_price"),
		Surface:   numberRange(values, "min_surface", "max_surface"),
		Bedrooms:  numberRange(values, "min_bedrooms", "max_bedrooms"),
		Bathrooms: numberRange(values, "min_bathrooms", "max_bathrooms"),
		Floor:     numberRange(values, "min_floor", "max_floor"),
		Cities:    list(values, "city"),
		Districts: list(values, "district"),
		ProjectID: positiveInt(values, "project_id"),

		Parking:  flag(values, "parking"),
		Elevator: flag(values, "elevator"),
		Terrace:  flag(values, "terrace"),
		Garden:   flag(values, "garden"),
		IsVefa:   flag(values, "is_vefa"),

		PublishedAfter:  date(values, "published_after"),
		PublishedBefore: date(values, "published_before"),

		Sort: parseSort(values, propertySortFields, defaults),
		Page: parsePage(values, defaults),
	}

	// "bedrooms=3" reads as "at least 3".
	f.Bedrooms.Min = atLeast(f.Bedrooms.Min, number(values, "bedrooms"))
	f.Bathrooms.Min = atLeast(f.Bathrooms.Min, number(values, "bathrooms"))

	for _, raw := range list(values, "type") {
		if t, ok := models.ParsePropertyType(raw); ok && !containsType(f.Types, t) {
			f.Types = append(f.Types, t)
		}
	}

	for _, raw := range list(values, "availability_status") {
		if st, ok := models.ParseAvailabilityStatus(raw); ok && !containsStatus(f.Statuses, st) {
			f.Statuses = append(f.Statuses, st)
		}
	}

	features := list(values, "features")
	for _, shortcut := range featureShortcuts {
		if flag(values, shortcut.Param) {
			features = append(features, shortcut.Feature)
		}
	}
	if set := models.NewStringSet(features...); len(set) > 0 {
		f.Features = set
	}

	return f
}

// Applied echoes the effective filters keyed by their query parameter names.
func (f PropertyFilter) Applied() map[string]interface{} {
	applied := make(map[string]interface{})

	if f.Search != "" {
		applied["search"] = f.Search
	}
	setRange(applied, "min_price", "max_price", f.Price)
	setRange(applied, "min_surface", "max_surface", f.Surface)
	setRange(applied, "min_bedrooms", "max_bedrooms", f.Bedrooms)
	setRange(applied, "min_bathrooms", "max_bathrooms", f.Bathrooms)
	setRange(applied, "min_floor", "max_floor", f.Floor)

	if len(f.Types) > 0 {
		applied["type"] = f.Types
	}
	if len(f.Cities) > 0 {
		applied["city"] = f.Cities
	}
	if len(f.Districts) > 0 {
		applied["district"] = f.Districts
	}
	if len(f.Statuses) > 0 {
		applied["availability_status"] = f.Statuses
	}
	if f.ProjectID != nil {
		applied["project_id"] = *f.ProjectID
	}

	for key, on := range map[string]bool{
		"parking":  f.Parking,
		"elevator": f.Elevator,
		"terrace":  f.Terrace,
		"garden":   f.Garden,
		"is_vefa":  f.IsVefa,
	} {
		if on {
			applied[key] = true
		}
	}

	if len(f.Features) > 0 {
		applied["features"] = f.Features
	}
	if f.PublishedAfter != nil {
		applied["published_after"] = f.PublishedAfter.Format(dateLayout)
	}
	if f.PublishedBefore != nil {
		applied["published_before"] = f.PublishedBefore.Format(dateLayout)
	}

	applied["sort_by"] = f.Sort.Field
	applied["sort_order"] = f.Sort.Direction()

	return applied
}

func atLeast(current, candidate *float64) *float64 {
	if candidate == nil {
		return current
	}
	if current == nil || *candidate > *current {
		return candidate
	}
	return current
}

func containsType(types []models.PropertyType, t models.PropertyType) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}

func containsStatus(statuses []models.AvailabilityStatus, st models.AvailabilityStatus) bool {
	for _, v := range statuses {
		if v == st {
			return true
		}
	}
	return false
}
