package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProperty() *Property {
	return &Property{
		Title:   "Villa avec piscine",
		Type:    PropertyTypeVilla,
		Price:   300000,
		Surface: 220,
		City:    "Tunis",
	}
}

func TestPropertyValidate(t *testing.T) {
	testCases := []struct {
		name          string
		mutate        func(p *Property)
		expectedField string
	}{
		{name: "Valid property", mutate: func(p *Property) {}},
		{name: "Missing title", mutate: func(p *Property) { p.Title = "   " }, expectedField: "title"},
		{name: "Unknown type", mutate: func(p *Property) { p.Type = "Castle" }, expectedField: "type"},
		{name: "Negative price", mutate: func(p *Property) { p.Price = -1 }, expectedField: "price"},
		{name: "Zero surface", mutate: func(p *Property) { p.Surface = 0 }, expectedField: "surface"},
		{name: "Bad status", mutate: func(p *Property) { p.AvailabilityStatus = "gone" }, expectedField: "availability_status"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := validProperty()
			tc.mutate(p)

			err := p.Validate()
			if tc.expectedField == "" {
				assert.NoError(t, err)
				assert.Equal(t, AvailabilityAvailable, p.AvailabilityStatus)
				return
			}

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr), "expected ValidationError, got %v", err)
			assert.Equal(t, tc.expectedField, vErr.Field)
		})
	}
}

func TestProjectValidate(t *testing.T) {
	p := &Project{Name: " Les Jardins ", TotalUnits: 10, AvailableUnits: 4}
	assert.NoError(t, p.Validate())
	assert.Equal(t, "Les Jardins", p.Name)
	assert.Equal(t, ProjectStatusPlanning, p.Status)

	p.AvailableUnits = 11
	var vErr *ValidationError
	require.True(t, errors.As(p.Validate(), &vErr))
	assert.Equal(t, "available_units", vErr.Field)
}

func TestProjectIsVefa(t *testing.T) {
	assert.True(t, (&Project{Tags: StringSet{"Neuf", "VEFA"}}).IsVefa())
	assert.False(t, (&Project{Tags: StringSet{"Neuf"}}).IsVefa())
}

func TestParseEnums(t *testing.T) {
	typ, ok := ParsePropertyType(" villa ")
	assert.True(t, ok)
	assert.Equal(t, PropertyTypeVilla, typ)

	_, ok = ParsePropertyType("Castle")
	assert.False(t, ok)

	status, ok := ParseProjectStatus("UNDER_CONSTRUCTION")
	assert.True(t, ok)
	assert.Equal(t, ProjectStatusUnderConstruction, status)

	avail, ok := ParseAvailabilityStatus("Sold")
	assert.True(t, ok)
	assert.Equal(t, AvailabilitySold, avail)
}

func TestStringSet(t *testing.T) {
	set := NewStringSet("Piscine", " Garage ", "", "Piscine")
	assert.Equal(t, StringSet{"Piscine", "Garage"}, set)
	assert.True(t, set.ContainsAll("Piscine", "Garage"))
	assert.False(t, set.ContainsAll("Piscine", "Jardin"))

	value, err := set.Value()
	require.NoError(t, err)
	assert.Equal(t, `["Piscine","Garage"]`, value)

	var scanned StringSet
	require.NoError(t, scanned.Scan([]byte(`["Meublé","Meublé","Cave"]`)))
	assert.Equal(t, StringSet{"Meublé", "Cave"}, scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.Empty(t, scanned)

	assert.Error(t, scanned.Scan(42))
	assert.Error(t, scanned.Scan("not json"))

	var empty StringSet
	data, err := empty.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}
