package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmarch/car-config/internal/core/domain"
)

func testModels() []domain.Model {
	return []domain.Model{
		{ID: "city", Name: "City", Power: 50, Price: 10000, MaxAccessories: 4},
		{ID: "sport", Name: "Sport", Power: 150, Price: 26000, MaxAccessories: 7},
	}
}

func testAccessories() []domain.Accessory {
	return []domain.Accessory{
		{ID: "radio", Name: "Radio", Capacity: 5},
		{ID: "bluetooth", Name: "Bluetooth", Capacity: 5, Mandatory: "radio"},
		{ID: "spare", Name: "Spare Tire", Capacity: 5, Incompat: []string{"runflat"}},
		{ID: "runflat", Name: "Run-Flat Tires", Capacity: 5},
	}
}

func TestNew_Lookups(t *testing.T) {
	cat, err := New(testModels(), testAccessories())
	require.NoError(t, err)

	m, ok := cat.ModelByID("city")
	require.True(t, ok)
	assert.Equal(t, 4, m.MaxAccessories)

	a, ok := cat.AccessoryByID("bluetooth")
	require.True(t, ok)
	assert.Equal(t, "radio", a.Mandatory)

	_, ok = cat.AccessoryByID("heated-seats")
	assert.False(t, ok)

	max, ok := cat.MaxAccessoriesFor("sport")
	require.True(t, ok)
	assert.Equal(t, 7, max)

	_, ok = cat.MaxAccessoriesFor("pickup")
	assert.False(t, ok)
}

func TestNew_SymmetricIncompatibility(t *testing.T) {
	cat, err := New(testModels(), testAccessories())
	require.NoError(t, err)

	// Only spare declares runflat, yet both directions are closed.
	assert.Equal(t, []string{"runflat"}, cat.IncompatibleWith("spare"))
	assert.Equal(t, []string{"spare"}, cat.IncompatibleWith("runflat"))
	assert.Empty(t, cat.IncompatibleWith("radio"))
}

func TestNew_DanglingMandatory(t *testing.T) {
	accessories := []domain.Accessory{
		{ID: "bluetooth", Name: "Bluetooth", Capacity: 5, Mandatory: "radio"},
	}
	_, err := New(testModels(), accessories)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)
}

func TestNew_DanglingIncompat(t *testing.T) {
	accessories := []domain.Accessory{
		{ID: "spare", Name: "Spare Tire", Capacity: 5, Incompat: []string{"runflat"}},
	}
	_, err := New(testModels(), accessories)
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)
}

func TestNew_SelfIncompat(t *testing.T) {
	accessories := []domain.Accessory{
		{ID: "spare", Name: "Spare Tire", Capacity: 5, Incompat: []string{"spare"}},
	}
	_, err := New(testModels(), accessories)
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)
}

func TestNew_MandatoryCycle(t *testing.T) {
	accessories := []domain.Accessory{
		{ID: "a", Name: "A", Capacity: 1, Mandatory: "b"},
		{ID: "b", Name: "B", Capacity: 1, Mandatory: "a"},
	}
	_, err := New(testModels(), accessories)
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)
}

func TestNew_MandatoryChainIsFine(t *testing.T) {
	accessories := []domain.Accessory{
		{ID: "a", Name: "A", Capacity: 1, Mandatory: "b"},
		{ID: "b", Name: "B", Capacity: 1, Mandatory: "c"},
		{ID: "c", Name: "C", Capacity: 1},
	}
	_, err := New(testModels(), accessories)
	assert.NoError(t, err)
}

func TestNew_DuplicateIDs(t *testing.T) {
	_, err := New(append(testModels(), domain.Model{ID: "city"}), testAccessories())
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)

	_, err = New(testModels(), append(testAccessories(), domain.Accessory{ID: "radio"}))
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)
}

func TestOrderPreserved(t *testing.T) {
	cat, err := New(testModels(), testAccessories())
	require.NoError(t, err)

	models := cat.Models()
	require.Len(t, models, 2)
	assert.Equal(t, "city", models[0].ID)

	accessories := cat.Accessories()
	require.Len(t, accessories, 4)
	assert.Equal(t, "radio", accessories[0].ID)
}
