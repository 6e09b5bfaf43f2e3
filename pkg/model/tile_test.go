package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithDefaults(t *testing.T) {
	tile := TileDimensions{Width: 10, Height: 20}.WithDefaults()
	assert.Equal(t, DefaultMaterial, tile.Material)

	tile = TileDimensions{Width: 10, Height: 20, Material: "plywood"}.WithDefaults()
	assert.Equal(t, "plywood", tile.Material)
}

func TestRotate90(t *testing.T) {
	tile := TileDimensions{Width: 10, Height: 20, Orientation: OrientationHorizontal}
	rotated := tile.Rotate90()

	assert.Equal(t, 20, rotated.Width)
	assert.Equal(t, 10, rotated.Height)
	assert.Equal(t, OrientationVertical, rotated.Orientation)
	assert.True(t, rotated.IsRotated)

	twice := rotated.Rotate90()
	assert.Equal(t, tile.Width, twice.Width)
	assert.Equal(t, tile.Height, twice.Height)
	assert.False(t, twice.IsRotated)
}

func TestIsSquare(t *testing.T) {
	assert.True(t, TileDimensions{Width: 5, Height: 5}.IsSquare())
	assert.False(t, TileDimensions{Width: 5, Height: 6}.IsSquare())
}

func TestAreaAndEqual(t *testing.T) {
	a := TileDimensions{ID: 1, Width: 3, Height: 4}
	b := TileDimensions{ID: 1, Width: 3, Height: 4}
	c := TileDimensions{ID: 2, Width: 3, Height: 4}

	assert.Equal(t, int64(12), a.Area())
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c), "ids differ so they are not the same demand unit")
}

func TestDimensionKeyIgnoresID(t *testing.T) {
	a := TileDimensions{ID: 1, Width: 3, Height: 4}
	b := TileDimensions{ID: 2, Width: 3, Height: 4}
	assert.Equal(t, a.DimensionKey(), b.DimensionKey())
}

func TestEdgeSpecIsZero(t *testing.T) {
	assert.True(t, EdgeSpec{}.IsZero())
	assert.False(t, EdgeSpec{Top: "PVC"}.IsZero())
}
