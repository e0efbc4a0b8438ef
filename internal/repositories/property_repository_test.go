package repositories

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/nestify/discovery/internal/filters"
	"github.com/nestify/discovery/internal/models"
	"github.com/nestify/discovery/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func search(t *testing.T, repo *PropertyRepository, raw string, scope query.Scope) ([]*models.Property, int) {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)

	items, total, err := repo.Query(context.Background(), query.ComposeProperties(filters.ParsePropertyFilter(values, filters.PropertyListing), scope))
	require.NoError(t, err)
	return items, total
}

func TestPropertyQueryBasePredicate(t *testing.T) {
	repo := NewPropertyRepository(newTestDB(t))
	visible := seedProperty(t, repo, func(p *models.Property) { p.OwnerID = 1 })
	hidden := seedProperty(t, repo, func(p *models.Property) { p.Validated = false; p.OwnerID = 1 })
	other := seedProperty(t, repo, func(p *models.Property) { p.OwnerID = 2 })

	testCases := []struct {
		name     string
		query    string
		scope    query.Scope
		expected []int64
	}{
		{name: "Empty filter", query: "", scope: query.Public(), expected: []int64{other.ID, visible.ID}},
		{name: "Search cannot reach hidden rows", query: "search=lumineux", scope: query.Public(), expected: []int64{other.ID, visible.ID}},
		{name: "Owner sees own drafts", query: "", scope: query.Owner(1), expected: []int64{hidden.ID, visible.ID}},
		{name: "Admin sees everything", query: "", scope: query.Admin(), expected: []int64{other.ID, hidden.ID, visible.ID}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			items, total := search(t, repo, tc.query, tc.scope)
			assert.Equal(t, tc.expected, ids(items))
			assert.Equal(t, len(tc.expected), total)
			if tc.scope.Kind == query.ScopePublic {
				for _, item := range items {
					assert.True(t, item.Validated)
				}
			}
		})
	}
}

func TestPropertyQueryFilters(t *testing.T) {
	repo := NewPropertyRepository(newTestDB(t))
	cheap := seedProperty(t, repo, func(p *models.Property) {
		p.Price = 100000
		p.Features = models.StringSet{"Piscine", "Garage"}
		p.Parking = true
	})
	mid := seedProperty(t, repo, func(p *models.Property) {
		p.Price = 150000
		p.Type = models.PropertyTypeVilla
		p.City = "Sousse"
		p.Features = models.StringSet{"Piscine"}
		p.Title = "Villa 50% vue mer"
	})
	dear := seedProperty(t, repo, func(p *models.Property) {
		p.Price = 200000
		p.City = "Sfax"
		p.Bedrooms = 0
		p.AvailabilityStatus = models.AvailabilitySold
	})

	testCases := []struct {
		name     string
		query    string
		expected []int64
	}{
		{name: "Range bounds are inclusive", query: "min_price=100000&max_price=150000", expected: []int64{mid.ID, cheap.ID}},
		{name: "Inverted bounds yield nothing", query: "min_price=500000&max_price=100000", expected: []int64{}},
		{name: "Enum array is any-of", query: "city[]=Sousse&city[]=Sfax", expected: []int64{dear.ID, mid.ID}},
		{name: "City ignores case", query: "city=sousse", expected: []int64{mid.ID}},
		{name: "City array ignores case", query: "city[]=SOUSSE&city[]=sfax", expected: []int64{dear.ID, mid.ID}},
		{name: "Type", query: "type=villa", expected: []int64{mid.ID}},
		{name: "Features are all-of", query: "features=Piscine,Garage", expected: []int64{cheap.ID}},
		{name: "Single feature", query: "piscine=1", expected: []int64{mid.ID, cheap.ID}},
		{name: "Missing feature", query: "features=Piscine,Jardin", expected: []int64{}},
		{name: "Flag narrows", query: "parking=1", expected: []int64{cheap.ID}},
		{name: "False flag is ignored", query: "parking=0", expected: []int64{dear.ID, mid.ID, cheap.ID}},
		{name: "Search is case-insensitive", query: "search=SOUSSE", expected: []int64{mid.ID}},
		{name: "Search treats % literally", query: "search=50%25", expected: []int64{mid.ID}},
		{name: "Availability", query: "availability_status=sold", expected: []int64{dear.ID}},
		{name: "Sort by price asc", query: "sort_by=price&sort_order=asc", expected: []int64{cheap.ID, mid.ID, dear.ID}},
		{name: "Rejected sort falls back", query: "sort_by=description&sort_order=asc", expected: []int64{dear.ID, mid.ID, cheap.ID}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			items, total := search(t, repo, tc.query, query.Public())
			assert.Equal(t, tc.expected, ids(items))
			assert.Equal(t, len(tc.expected), total)
		})
	}
}

func TestPropertyPagination(t *testing.T) {
	repo := NewPropertyRepository(newTestDB(t))
	for i := 0; i < 60; i++ {
		seedProperty(t, repo, nil)
	}

	items, total := search(t, repo, "per_page=1000", query.Public())
	assert.Len(t, items, filters.MaxPerPage)
	assert.Equal(t, 60, total)

	items, _ = search(t, repo, "per_page=0", query.Public())
	assert.Len(t, items, filters.PropertyListing.PerPage)

	// Equal created_at: the id tie-break keeps pages disjoint.
	first, _ := search(t, repo, "per_page=25&page=1", query.Public())
	second, _ := search(t, repo, "per_page=25&page=2", query.Public())
	third, total := search(t, repo, "per_page=25&page=3", query.Public())
	assert.Len(t, third, 10)
	assert.Equal(t, 60, total)

	seen := map[int64]bool{}
	for _, p := range append(append(first, second...), third...) {
		assert.False(t, seen[p.ID], "duplicate id %d", p.ID)
		seen[p.ID] = true
	}
	assert.Greater(t, first[0].ID, first[1].ID)

	beyond, total := search(t, repo, "per_page=25&page=9", query.Public())
	assert.Empty(t, beyond)
	assert.Equal(t, 60, total)
}

func TestPropertyInheritsProjectLocation(t *testing.T) {
	db := newTestDB(t)
	projects := NewProjectRepository(db)
	repo := NewPropertyRepository(db)

	project := seedProject(t, projects, func(p *models.Project) { p.City = "Sousse"; p.District = "Khezama" })
	unit := seedProperty(t, repo, func(p *models.Property) {
		p.ProjectID = &project.ID
		p.City = ""
	})

	items, _ := search(t, repo, "city=Sousse&district=Khezama", query.Public())
	require.Len(t, items, 1)
	assert.Equal(t, unit.ID, items[0].ID)
	assert.Equal(t, "Sousse", items[0].City)
	assert.Equal(t, "Khezama", items[0].District)
	assert.Equal(t, project.Slug, items[0].ProjectSlug)
	require.NotNil(t, items[0].ProjectID)
	assert.Equal(t, project.ID, *items[0].ProjectID)

	folded, _ := search(t, repo, "city=SOUSSE&district=khezama", query.Public())
	assert.Equal(t, []int64{unit.ID}, ids(folded))
}

func TestPropertyFindVisibleByID(t *testing.T) {
	repo := NewPropertyRepository(newTestDB(t))
	ctx := context.Background()
	published := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	visible := seedProperty(t, repo, func(p *models.Property) {
		p.Features = models.StringSet{"Cave"}
		p.Images = models.StringSet{"properties/1.jpg"}
		p.PublishedDate = &published
	})
	hidden := seedProperty(t, repo, func(p *models.Property) { p.Validated = false })

	found, err := repo.FindVisibleByID(ctx, visible.ID, query.PublicProperties)
	require.NoError(t, err)
	assert.Equal(t, visible.Title, found.Title)
	assert.Equal(t, models.StringSet{"Cave"}, found.Features)
	assert.Equal(t, models.StringSet{"properties/1.jpg"}, found.Images)
	require.NotNil(t, found.PublishedDate)
	assert.True(t, published.Equal(*found.PublishedDate))

	_, err = repo.FindVisibleByID(ctx, hidden.ID, query.PublicProperties)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.FindVisibleByID(ctx, 9999, query.PublicProperties)
	assert.ErrorIs(t, err, ErrNotFound)

	found, err = repo.FindVisibleByID(ctx, hidden.ID, query.True)
	require.NoError(t, err)
	assert.False(t, found.Validated)
}

func TestPropertyAggregates(t *testing.T) {
	repo := NewPropertyRepository(newTestDB(t))
	ctx := context.Background()
	seedProperty(t, repo, func(p *models.Property) { p.Bedrooms = 0; p.Price = 90000; p.Type = models.PropertyTypeStudio })
	seedProperty(t, repo, func(p *models.Property) { p.Bedrooms = 3; p.Price = 300000; p.City = "Sousse" })
	seedProperty(t, repo, func(p *models.Property) { p.Bedrooms = 5; p.Price = 600000 })
	seedProperty(t, repo, func(p *models.Property) { p.Validated = false; p.City = "Bizerte"; p.Price = 5000000 })

	cities, err := repo.DistinctValuesAndCounts(ctx, "city", query.PublicProperties, 0)
	require.NoError(t, err)
	assert.Equal(t, []models.ValueCount{{Value: "Tunis", Count: 2}, {Value: "Sousse", Count: 1}}, cities)

	top, err := repo.DistinctValuesAndCounts(ctx, "city", query.PublicProperties, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)

	bedrooms, err := repo.NumericRange(ctx, "bedrooms", query.PublicProperties, true)
	require.NoError(t, err)
	assert.Equal(t, 3.0, bedrooms.Min)
	assert.Equal(t, 5.0, bedrooms.Max)

	price, err := repo.NumericRange(ctx, "price", query.PublicProperties, false)
	require.NoError(t, err)
	assert.Equal(t, models.NumericRange{Min: 90000, Max: 600000, Avg: 330000, Samples: 3}, price)

	empty, err := repo.NumericRange(ctx, "price", query.And(query.PublicProperties, query.Raw("1 = 0")), false)
	require.NoError(t, err)
	assert.Equal(t, models.NumericRange{}, empty)

	_, err = repo.DistinctValuesAndCounts(ctx, "description", query.PublicProperties, 0)
	assert.ErrorIs(t, err, ErrUnknownField)
	_, err = repo.NumericRange(ctx, "title", query.PublicProperties, false)
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestPropertyIncrementViews(t *testing.T) {
	repo := NewPropertyRepository(newTestDB(t))
	ctx := context.Background()
	p := seedProperty(t, repo, nil)

	require.NoError(t, repo.IncrementViews(ctx, p.ID))
	require.NoError(t, repo.IncrementViews(ctx, p.ID))

	found, err := repo.FindVisibleByID(ctx, p.ID, query.PublicProperties)
	require.NoError(t, err)
	assert.Equal(t, int64(2), found.Views)
}

func TestPropertySetValidated(t *testing.T) {
	repo := NewPropertyRepository(newTestDB(t))
	ctx := context.Background()
	p := seedProperty(t, repo, func(p *models.Property) { p.Validated = false })

	require.NoError(t, repo.SetValidated(ctx, p.ID, true))
	_, err := repo.FindVisibleByID(ctx, p.ID, query.PublicProperties)
	assert.NoError(t, err)

	assert.ErrorIs(t, repo.SetValidated(ctx, 424242, true), ErrNotFound)
}

func TestPropertyStoreFailureIsRetryable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("connection refused"))

	repo := NewPropertyRepository(db)
	items, total, err := repo.Query(context.Background(), query.ComposeProperties(filters.PropertyFilter{
		Sort: filters.PropertyListing.Sort,
		Page: filters.Page{Number: 1, PerPage: 12},
	}, query.Public()))

	assert.Nil(t, items)
	assert.Zero(t, total)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.True(t, IsRetryable(err))
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPropertyDeadlineIsRetryable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT MIN").WillDelayFor(time.Second).WillReturnRows(sqlmock.NewRows([]string{"min", "max", "avg", "count"}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = NewPropertyRepository(db).NumericRange(ctx, "price", query.PublicProperties, false)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestPropertyEmptyResultIsNotAnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	items, total, err := NewPropertyRepository(db).Query(context.Background(), query.Query{Where: query.PublicProperties, Limit: 12})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
