package view

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payboard/internal/core"
)

func TestNiceStep(t *testing.T) {
	cases := []struct {
		raw  float64
		want int64
	}{
		{0, 1},
		{0.5, 1},
		{1, 1},
		{1.5, 2},
		{3, 5},
		{7, 10},
		{12.5, 20},
		{24, 25},
		{240, 250},
		{300, 500},
		{1000, 1000},
		{1001, 2000},
		{2.5e14, 250_000_000_000_000},
		{1.25e18, 2_000_000_000_000_000_000},
		{2.25e18, maxStep},
		{1e19, maxStep},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, niceStep(tc.raw), "raw %v", tc.raw)
	}
}

func TestNewScaleCoversPeak(t *testing.T) {
	for _, peak := range []int64{0, 1, 3, 9, 40, 99, 960, 12345, 1 << 40} {
		s := NewScale(peak)
		assert.GreaterOrEqual(t, s.Max, peak, "peak %d", peak)
		assert.Equal(t, s.Step*4, s.Max)
	}
}

func TestNewScaleNearInt64Limit(t *testing.T) {
	for _, peak := range []int64{core.MaxCount, 5e18, 9e18, math.MaxInt64} {
		s := NewScale(peak)
		assert.Positive(t, s.Step, "peak %d", peak)
		assert.GreaterOrEqual(t, s.Max, peak, "peak %d", peak)
		assert.GreaterOrEqual(t, s.Max, s.Step*4, "peak %d", peak)
	}
	assert.Equal(t, Scale{Step: 250_000_000_000_000, Max: core.MaxCount}, NewScale(core.MaxCount))
}

func TestBarChartLargestCounter(t *testing.T) {
	v := BarChart([]core.Record{{Month: "march", Success: 9e18, Failed: 1}})

	prev := int64(-1)
	for _, tick := range v.Ticks {
		assert.Greater(t, tick.Value, prev)
		prev = tick.Value
	}
	require.Len(t, v.Bars, 2)
	assert.Greater(t, v.Bars[0].Height, 0.0)
	assert.LessOrEqual(t, v.Bars[0].Height, float64(plotHeight))
}

func TestBarChartSeed(t *testing.T) {
	v := BarChart(core.Seed())

	assert.Equal(t, Scale{Step: 250, Max: 1000}, v.Scale)
	require.Len(t, v.Labels, 2)
	assert.Equal(t, "jan", v.Labels[0].Text)
	assert.Equal(t, "january", v.Labels[0].Title)
	assert.Equal(t, "feb", v.Labels[1].Text)
	assert.Equal(t, 180.0, v.Labels[0].X)
	assert.Equal(t, 452.0, v.Labels[1].X)

	require.Len(t, v.Bars, 4)
	assert.Equal(t, core.StatusSuccess, v.Bars[0].Key)
	assert.Equal(t, core.StatusFailed, v.Bars[1].Key)
	assert.Equal(t, int64(300), v.Bars[0].Value)
	assert.Equal(t, int64(400), v.Bars[1].Value)
	assert.Equal(t, 71.2, v.Bars[0].X)
	assert.Equal(t, 152.0, v.Bars[0].Y)
	assert.Equal(t, 60.0, v.Bars[0].Height)
	assert.Equal(t, 108.8, v.Bars[0].Width)
	assert.Equal(t, 180.0, v.Bars[1].X)
	assert.Equal(t, 80.0, v.Bars[1].Height)

	require.Len(t, v.Legend, 2)
	assert.Equal(t, "Success", v.Legend[0].Label)
	assert.Equal(t, "Failed", v.Legend[1].Label)

	require.Len(t, v.Ticks, 5)
	assert.Equal(t, int64(0), v.Ticks[0].Value)
	assert.Equal(t, 212.0, v.Ticks[0].Y)
	assert.Equal(t, "1000", v.Ticks[4].Label)
	assert.Equal(t, 12.0, v.Ticks[4].Y)
}

func TestBarChartEmpty(t *testing.T) {
	v := BarChart(nil)
	assert.Empty(t, v.Bars)
	assert.Empty(t, v.Labels)
	assert.Equal(t, Scale{Step: 1, Max: 4}, v.Scale)
	assert.Len(t, v.Ticks, 5)
}

func TestBarChartKeepsDuplicateMonthsInOrder(t *testing.T) {
	recs := []core.Record{{Month: "march"}, {Month: "april"}, {Month: "march"}}
	v := BarChart(recs)
	require.Len(t, v.Labels, 3)
	assert.Equal(t, []string{"mar", "apr", "mar"}, []string{v.Labels[0].Text, v.Labels[1].Text, v.Labels[2].Text})
	assert.Len(t, v.Bars, 6)
}

func TestLineChartSeed(t *testing.T) {
	v := LineChart(core.Seed())

	require.Len(t, v.Series, 4)
	keys := make([]core.StatusKey, 0, 4)
	for _, s := range v.Series {
		keys = append(keys, s.Key)
		assert.Len(t, s.Points, 2)
	}
	assert.Equal(t, []core.StatusKey{core.StatusPending, core.StatusProcessing, core.StatusSuccess, core.StatusFailed}, keys)
	assert.Equal(t, "180,192 452,112", v.Series[0].Path)
	assert.Equal(t, int64(20), v.Series[1].Points[1].Value)
	assert.Len(t, v.Legend, 4)
}

func TestLineChartEmpty(t *testing.T) {
	v := LineChart(nil)
	require.Len(t, v.Series, 4)
	for _, s := range v.Series {
		assert.Empty(t, s.Points)
		assert.Equal(t, "", s.Path)
	}
}

func TestRenderersDoNotMutateInput(t *testing.T) {
	recs := core.Seed()
	want := core.Seed()

	first := RenderPage(recs, EditingForm())
	second := RenderPage(recs, EditingForm())

	assert.Equal(t, want, recs)
	assert.Equal(t, first, second)
}
