package filters

import (
	"net/url"

	"github.com/nestify/discovery/internal/models"
)

// ProjectFilter is the parsed form of a project listing request.
type ProjectFilter struct {
	Search    string
	Cities    []string
	Districts []string
	Statuses  []models.ProjectStatus

	// StartingPrice bounds the project's lowest available unit price.
	StartingPrice Range

	// Amenities must all be present on a matching project.
	Amenities      []string
	IsVefa         bool
	AvailableUnits bool

	Sort Sort
	Page Page
}

func ParseProjectFilter(values url.Values, defaults Defaults) ProjectFilter {
	f := ProjectFilter{
		Search:         first(values, "search", "query", "q"),
		Cities:         list(values, "city"),
		Districts:      list(values, "district"),
		StartingPrice:  numberRange(values, "min_price", "max_price"),
		IsVefa:         flag(values, "is_vefa"),
		AvailableUnits: flag(values, "available_units"),
		Sort:           parseSort(values, projectSortFields, defaults),
		Page:           parsePage(values, defaults),
	}

	for _, raw := range list(values, "status") {
		st, ok := models.ParseProjectStatus(raw)
		if !ok {
			continue
		}
		dup := false
		for _, existing := range f.Statuses {
			dup = dup || existing == st
		}
		if !dup {
			f.Statuses = append(f.Statuses, st)
		}
	}

	if set := models.NewStringSet(list(values, "amenities")...); len(set) > 0 {
		f.Amenities = set
	}

	return f
}

func (f ProjectFilter) Applied() map[string]interface{} {
	applied := make(map[string]interface{})

	if f.Search != "" {
		applied["search"] = f.Search
	}
	if len(f.Cities) > 0 {
		applied["city"] = f.Cities
	}
	if len(f.Districts) > 0 {
		applied["district"] = f.Districts
	}
	if len(f.Statuses) > 0 {
		applied["status"] = f.Statuses
	}
	setRange(applied, "min_price", "max_price", f.StartingPrice)
	if len(f.Amenities) > 0 {
		applied["amenities"] = f.Amenities
	}
	if f.IsVefa {
		applied["is_vefa"] = true
	}
	if f.AvailableUnits {
		applied["available_units"] = true
	}

	applied["sort_by"] = f.Sort.Field
	applied["sort_order"] = f.Sort.Direction()

	return applied
}
