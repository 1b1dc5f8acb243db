package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryCatalogComplete(t *testing.T) {
	cats := Categories()
	require.Len(t, cats, 10)
	for _, c := range cats {
		meta, ok := c.Metadata()
		require.True(t, ok, c)
		assert.Equal(t, c, meta.Category)
		assert.NotEmpty(t, meta.Title)
		assert.NotEmpty(t, meta.Icon)
		assert.NotEmpty(t, meta.Tips)
		assert.Regexp(t, `^#[0-9A-F]{6}$`, meta.Color)
		assert.GreaterOrEqual(t, meta.BasePoints, 5)
		assert.LessOrEqual(t, meta.BasePoints, 30)
	}
}

func TestCategoryBasePoints(t *testing.T) {
	expected := map[ReportCategory]int{
		CategoryTrash: 10, CategoryPollution: 15, CategoryDeforestation: 20,
		CategoryWaterPollution: 25, CategoryAirPollution: 20, CategoryWildlife: 30,
		CategoryNoise: 15, CategorySoil: 18, CategoryAnimal: 25, CategoryOther: 5,
	}
	for c, pts := range expected {
		assert.Equal(t, pts, c.BasePoints(), c)
	}
	assert.Zero(t, ReportCategory("LITTER").BasePoints())
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory(" water_pollution ")
	require.True(t, ok)
	assert.Equal(t, CategoryWaterPollution, c)

	_, ok = ParseCategory("litter")
	assert.False(t, ok)
	_, ok = ParseCategory("")
	assert.False(t, ok)
}

func TestCategoryMetadataReturnsCopy(t *testing.T) {
	meta, _ := CategoryTrash.Metadata()
	meta.Tips[0] = "changed"
	again, _ := CategoryTrash.Metadata()
	assert.NotEqual(t, "changed", again.Tips[0])
}
