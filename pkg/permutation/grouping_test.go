package permutation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cutlistopt/engine/pkg/model"
)

func TestIsOneDimensionalTrueWhenSharedSide(t *testing.T) {
	demand := []model.TileDimensions{
		{Width: 100, Height: 10},
		{Width: 100, Height: 20},
	}
	stock := []model.TileDimensions{
		{Width: 100, Height: 200},
	}
	assert.True(t, IsOneDimensional(demand, stock))
}

func TestIsOneDimensionalFalseWhenNoSharedSide(t *testing.T) {
	demand := []model.TileDimensions{
		{Width: 100, Height: 10},
		{Width: 50, Height: 20},
	}
	stock := []model.TileDimensions{
		{Width: 300, Height: 300},
	}
	assert.False(t, IsOneDimensional(demand, stock))
}

func TestIsOneDimensionalEmptyDemand(t *testing.T) {
	assert.False(t, IsOneDimensional(nil, nil))
}

func TestGroupSplitThresholdOneDimensional(t *testing.T) {
	assert.Equal(t, 1, groupSplitThreshold(500, true))
}

func TestGroupSplitThresholdFloorsAtOne(t *testing.T) {
	assert.Equal(t, 1, groupSplitThreshold(50, false))
	assert.Equal(t, 2, groupSplitThreshold(250, false))
}

func TestGroupAssignsSecondGroupOnceThresholdExceeded(t *testing.T) {
	demand := []model.TileDimensions{
		{Width: 10, Height: 10},
		{Width: 20, Height: 20},
		{Width: 10, Height: 10},
	}
	stock := []model.TileDimensions{{Width: 500, Height: 500}}

	grouped := Group(demand, stock)
	require := assert.New(t)
	require.Len(grouped, 3)
	require.Equal(0, grouped[0].Group, "first occurrence of a key stays in group 0")
	require.Equal(0, grouped[1].Group, "a distinct key never exceeding count 1 never splits")
	require.Equal(1, grouped[2].Group, "the repeat occurrence past the threshold moves to group 1")
}

func TestGroupSplitsDistinctKeysIndependently(t *testing.T) {
	demand := []model.TileDimensions{
		{Width: 10, Height: 10},
		{Width: 20, Height: 20},
	}
	stock := []model.TileDimensions{{Width: 500, Height: 500}}

	grouped := Group(demand, stock)
	require := assert.New(t)
	require.Len(grouped, 2)
	require.Equal(demand[0].Width, grouped[0].Width)
	require.Equal(demand[1].Width, grouped[1].Width)
}
