package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters(t *testing.T) {
	assert.InDelta(t, 0, DistanceMeters(-6.2, 106.8, -6.2, 106.8), 1e-6)

	// one thousandth of a degree of latitude is roughly 111 m
	d := DistanceMeters(0, 0, 0.001, 0)
	assert.InDelta(t, 111.19, d, 0.5)

	paris, london := [2]float64{48.8566, 2.3522}, [2]float64{51.5074, -0.1278}
	assert.InDelta(t, 343_500, DistanceMeters(paris[0], paris[1], london[0], london[1]), 1_500)

	assert.True(t, Within(0, 0, 0.0005, 0, 100))
	assert.False(t, Within(0, 0, 0.002, 0, 100))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(90, 180))
	assert.True(t, Valid(-90, -180))
	assert.False(t, Valid(90.1, 0))
	assert.False(t, Valid(0, -180.5))
	assert.False(t, Valid(math.NaN(), 0))
	assert.False(t, Valid(0, math.Inf(1)))
}

func TestBoundingBoxesContainNeighbours(t *testing.T) {
	boxes := BoundingBoxes(-6.2, 106.8, 100)
	assert.Len(t, boxes, 1)
	assert.True(t, boxes[0].Contains(-6.2, 106.8))
	assert.True(t, boxes[0].Contains(-6.2+0.0008, 106.8))
	assert.False(t, boxes[0].Contains(-6.2+0.01, 106.8))
}

func TestBoundingBoxesSplitAtAntimeridian(t *testing.T) {
	boxes := BoundingBoxes(0, 179.9995, 200)
	assert.Len(t, boxes, 2)

	hit := false
	for _, b := range boxes {
		assert.LessOrEqual(t, b.MinLon, b.MaxLon)
		if b.Contains(0, -179.9995) {
			hit = true
		}
	}
	assert.True(t, hit)
}

func TestLockCellsShareCellForNearbyPoints(t *testing.T) {
	a := LockCells(-6.2, 106.8, 100)
	b := LockCells(-6.2+0.0008, 106.8+0.0002, 100)
	assert.NotEmpty(t, a)

	shared := false
	set := make(map[int64]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; ok {
			shared = true
		}
	}
	assert.True(t, shared)

	for i := 1; i < len(a); i++ {
		assert.Less(t, a[i-1], a[i])
	}
}
