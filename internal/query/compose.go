package query

import (
	"fmt"
	"time"

	"github.com/nestify/discovery/internal/filters"
)

// Property queries read "properties p LEFT JOIN projects pj"; project
// queries read "projects pj". Location columns of a property fall back to
// its project's.
const (
	PropertyID       = "p.id"
	PropertyTitle    = "p.title"
	PropertyDesc     = "p.description"
	PropertyAddress  = "p.address"
	PropertyType     = "p.type"
	PropertyPrice    = "p.price"
	PropertySurface  = "p.surface"
	PropertyBedrooms = "p.bedrooms"
	PropertyBaths    = "p.bathrooms"
	PropertyFloor    = "p.floor"
	PropertyStatus   = "p.availability_status"
	PropertyOwner    = "p.owner_id"
	PropertyProject  = "p.project_id"
	PropertyCity     = "COALESCE(NULLIF(p.city, ''), pj.city, '')"
	PropertyDistrict = "COALESCE(NULLIF(p.district, ''), pj.district, '')"

	ProjectID        = "pj.id"
	ProjectName      = "pj.name"
	ProjectDesc      = "pj.description"
	ProjectCity      = "pj.city"
	ProjectDistrict  = "pj.district"
	ProjectStatus    = "pj.status"
	ProjectPrice     = "pj.starting_price"
	ProjectAvailable = "pj.available_units"
	ProjectPromoter  = "pj.promoter_id"
)

var propertyOrderColumns = map[string]string{
	filters.SortPrice:         "p.price",
	filters.SortSurface:       "p.surface",
	filters.SortCreatedAt:     "p.created_at",
	filters.SortPublishedDate: "p.published_date",
	filters.SortViews:         "p.views",
	filters.SortBedrooms:      "p.bedrooms",
	filters.SortBathrooms:     "p.bathrooms",
}

var projectOrderColumns = map[string]string{
	filters.SortPrice:          "pj.starting_price",
	filters.SortCreatedAt:      "pj.created_at",
	filters.SortPublishedDate:  "pj.published_at",
	filters.SortViews:          "pj.views",
	filters.SortAvailableUnits: "pj.available_units",
}

// Visibility scopes. The base predicate of a scope is always the first term
// of a composed WHERE clause.
type ScopeKind int

const (
	ScopePublic ScopeKind = iota
	ScopeOwner
	ScopeAdmin
)

type Scope struct {
	Kind    ScopeKind
	ActorID int64
}

func Public() Scope             { return Scope{Kind: ScopePublic} }
func Owner(actorID int64) Scope { return Scope{Kind: ScopeOwner, ActorID: actorID} }
func Admin() Scope              { return Scope{Kind: ScopeAdmin} }

// PublicProperties and PublishedProjects are the discovery base predicates.
var (
	PublicProperties  Predicate = Raw("p.validated = TRUE")
	PublishedProjects Predicate = Raw("pj.is_published = TRUE")
	AvailableProperty Predicate = Eq(PropertyStatus, "available")
)

// PropertyBase returns the non-optional predicate for scope.
func PropertyBase(scope Scope) Predicate {
	switch scope.Kind {
	case ScopeOwner:
		return Eq(PropertyOwner, scope.ActorID)
	case ScopeAdmin:
		return True
	default:
		return PublicProperties
	}
}

func ProjectBase(scope Scope) Predicate {
	switch scope.Kind {
	case ScopeOwner:
		return Eq(ProjectPromoter, scope.ActorID)
	case ScopeAdmin:
		return True
	default:
		return PublishedProjects
	}
}

type Order struct {
	Column string
	Desc   bool
}

func (o Order) String() string {
	if o.Desc {
		return o.Column + " DESC"
	}
	return o.Column + " ASC"
}

// Query is an executable listing request.
type Query struct {
	Where   Predicate
	OrderBy []Order
	Limit   int
	Offset  int
}

// OrderClause renders ORDER BY terms.
func (q Query) OrderClause() string {
	if len(q.OrderBy) == 0 {
		return ""
	}
	clause := "ORDER BY "
	for i, o := range q.OrderBy {
		if i > 0 {
			clause += ", "
		}
		clause += o.String()
	}
	return clause
}

// ordering sorts by the requested column then by id in the same direction.
func ordering(sort filters.Sort, columns map[string]string, idColumn string) []Order {
	column, ok := columns[sort.Field]
	if !ok {
		return []Order{{Column: columns[filters.SortCreatedAt], Desc: true}, {Column: idColumn, Desc: true}}
	}
	return []Order{{Column: column, Desc: sort.Desc}, {Column: idColumn, Desc: sort.Desc}}
}

// DefaultPropertyOrder is newest first.
func DefaultPropertyOrder() []Order {
	return ordering(filters.Sort{Field: filters.SortCreatedAt, Desc: true}, propertyOrderColumns, PropertyID)
}

// PropertyPredicate folds f into one predicate behind the scope's base.
func PropertyPredicate(f filters.PropertyFilter, scope Scope) Predicate {
	preds := []Predicate{PropertyBase(scope)}

	if f.Search != "" {
		preds = append(preds, AnyLike{
			Columns: []string{PropertyTitle, PropertyDesc, PropertyCity, PropertyAddress},
			Term:    f.Search,
		})
	}

	preds = append(preds,
		rangePredicate(PropertyPrice, f.Price),
		rangePredicate(PropertySurface, f.Surface),
		rangePredicate(PropertyBedrooms, f.Bedrooms),
		rangePredicate(PropertyBaths, f.Bathrooms),
		rangePredicate(PropertyFloor, f.Floor),
	)

	if len(f.Types) > 0 {
		values := make([]interface{}, len(f.Types))
		for i, t := range f.Types {
			values[i] = string(t)
		}
		preds = append(preds, In{Column: PropertyType, Values: values})
	}
	if len(f.Cities) > 0 {
		preds = append(preds, In{Column: PropertyCity, Values: anySlice(f.Cities), Fold: true})
	}
	if len(f.Districts) > 0 {
		preds = append(preds, In{Column: PropertyDistrict, Values: anySlice(f.Districts), Fold: true})
	}
	if len(f.Statuses) > 0 {
		values := make([]interface{}, len(f.Statuses))
		for i, st := range f.Statuses {
			values[i] = string(st)
		}
		preds = append(preds, In{Column: PropertyStatus, Values: values})
	}
	if f.ProjectID != nil {
		preds = append(preds, Eq(PropertyProject, *f.ProjectID))
	}

	for _, fl := range []struct {
		column string
		on     bool
	}{
		{"p.parking", f.Parking},
		{"p.elevator", f.Elevator},
		{"p.terrace", f.Terrace},
		{"p.garden", f.Garden},
		{"p.is_vefa", f.IsVefa},
	} {
		if fl.on {
			preds = append(preds, Raw(fl.column+" = TRUE"))
		}
	}

	if len(f.Features) > 0 {
		preds = append(preds, FeaturesContain(f.Features...))
	}

	if f.PublishedAfter != nil {
		preds = append(preds, Gte("p.published_date", f.PublishedAfter.Format("2006-01-02")))
	}
	if f.PublishedBefore != nil {
		// Inclusive of the whole day.
		preds = append(preds, Lt("p.published_date", f.PublishedBefore.Add(24*time.Hour).Format("2006-01-02")))
	}

	return And(preds...)
}

// ComposeProperties builds the page query for a property listing.
func ComposeProperties(f filters.PropertyFilter, scope Scope) Query {
	return Query{
		Where:   PropertyPredicate(f, scope),
		OrderBy: ordering(f.Sort, propertyOrderColumns, PropertyID),
		Limit:   f.Page.PerPage,
		Offset:  f.Page.Offset(),
	}
}

func ProjectPredicate(f filters.ProjectFilter, scope Scope) Predicate {
	preds := []Predicate{ProjectBase(scope)}

	if f.Search != "" {
		preds = append(preds, AnyLike{
			Columns: []string{ProjectName, ProjectDesc, ProjectCity, ProjectDistrict},
			Term:    f.Search,
		})
	}
	if len(f.Cities) > 0 {
		preds = append(preds, In{Column: ProjectCity, Values: anySlice(f.Cities), Fold: true})
	}
	if len(f.Districts) > 0 {
		preds = append(preds, In{Column: ProjectDistrict, Values: anySlice(f.Districts), Fold: true})
	}
	if len(f.Statuses) > 0 {
		values := make([]interface{}, len(f.Statuses))
		for i, st := range f.Statuses {
			values[i] = string(st)
		}
		preds = append(preds, In{Column: ProjectStatus, Values: values})
	}

	preds = append(preds, rangePredicate(ProjectPrice, f.StartingPrice))

	if len(f.Amenities) > 0 {
		preds = append(preds, ContainsAll{
			OwnerColumn: ProjectID,
			Table:       "project_amenities",
			KeyColumn:   "project_id",
			ValueColumn: "amenity",
			Values:      f.Amenities,
		})
	}
	if f.IsVefa {
		preds = append(preds, ContainsAll{
			OwnerColumn: ProjectID,
			Table:       "project_tags",
			KeyColumn:   "project_id",
			ValueColumn: "tag",
			Values:      []string{"VEFA"},
		})
	}
	if f.AvailableUnits {
		preds = append(preds, Raw(ProjectAvailable+" > 0"))
	}

	return And(preds...)
}

func ComposeProjects(f filters.ProjectFilter, scope Scope) Query {
	return Query{
		Where:   ProjectPredicate(f, scope),
		OrderBy: ordering(f.Sort, projectOrderColumns, ProjectID),
		Limit:   f.Page.PerPage,
		Offset:  f.Page.Offset(),
	}
}

// FeaturesContain requires a property to carry every feature.
func FeaturesContain(features ...string) Predicate {
	return ContainsAll{
		OwnerColumn: PropertyID,
		Table:       "property_features",
		KeyColumn:   "property_id",
		ValueColumn: "feature",
		Values:      features,
	}
}

// rangePredicate applies each present bound inclusively.
func rangePredicate(column string, r filters.Range) Predicate {
	var preds []Predicate
	if r.Min != nil {
		preds = append(preds, Gte(column, *r.Min))
	}
	if r.Max != nil {
		preds = append(preds, Lte(column, *r.Max))
	}
	if len(preds) == 0 {
		return nil
	}
	return And(preds...)
}

func anySlice(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// Describe renders a query for debug logging.
func Describe(q Query) string {
	where, args := Where(q.Where)
	return fmt.Sprintf("WHERE %s %s LIMIT %d OFFSET %d %v", where, q.OrderClause(), q.Limit, q.Offset, args)
}
