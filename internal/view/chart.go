// Package view derives render-ready models from the record sequence.
//
// Every function here is pure: it reads the records it is given, never
// mutates them, and keeps nothing between calls. Templates only position
// what these models already computed.
package view

import (
	"math"
	"strconv"

	"payboard/internal/core"
)

// Chart viewport, in SVG user units.
const (
	ChartWidth  = 600
	ChartHeight = 240

	marginTop    = 12
	marginRight  = 12
	marginBottom = 28
	marginLeft   = 44

	plotWidth  = ChartWidth - marginLeft - marginRight
	plotHeight = ChartHeight - marginTop - marginBottom

	gridLines = 5
)

type (
	// Scale maps counters onto the vertical axis.
	Scale struct {
		Step int64
		Max  int64
	}

	Tick struct {
		Value int64
		Label string
		Y     float64
	}

	// AxisLabel is one category on the horizontal axis.
	AxisLabel struct {
		Text  string
		Title string
		X     float64
		Y     float64
	}

	Bar struct {
		Key    core.StatusKey
		Color  string
		Month  string
		Value  int64
		X      float64
		Y      float64
		Width  float64
		Height float64
	}

	Point struct {
		Month string
		Value int64
		X     float64
		Y     float64
	}

	Series struct {
		Key    core.StatusKey
		Label  string
		Color  string
		Points []Point
		// Path is the polyline points attribute.
		Path string
	}

	// Frame is shared by both charts: viewport, grid and categories.
	Frame struct {
		Width      int
		Height     int
		PlotLeft   float64
		PlotRight  float64
		PlotTop    float64
		PlotBottom float64
		Scale      Scale
		Ticks      []Tick
		Labels     []AxisLabel
		Legend     []core.Status
	}

	BarChartView struct {
		Frame
		Bars []Bar
	}

	LineChartView struct {
		Frame
		Series []Series
	}
)

var (
	barKeys  = []core.StatusKey{core.StatusSuccess, core.StatusFailed}
	lineKeys = []core.StatusKey{core.StatusPending, core.StatusProcessing, core.StatusSuccess, core.StatusFailed}
)

// BarChart renders success and failed side by side for every record.
func BarChart(records []core.Record) BarChartView {
	f := newFrame(records, barKeys)
	v := BarChartView{Frame: f, Bars: make([]Bar, 0, len(records)*len(barKeys))}
	if len(records) == 0 {
		return v
	}
	band := float64(plotWidth) / float64(len(records))
	inner := band * 0.8
	barW := inner / float64(len(barKeys))
	for i, r := range records {
		x0 := float64(marginLeft) + float64(i)*band + (band-inner)/2
		for j, key := range barKeys {
			st := mustStatus(key)
			val := r.Count(key)
			y := f.Scale.y(val)
			v.Bars = append(v.Bars, Bar{
				Key:    key,
				Color:  st.Color,
				Month:  r.Month,
				Value:  val,
				X:      round1(x0 + float64(j)*barW),
				Y:      y,
				Width:  round1(barW),
				Height: round1(float64(marginTop+plotHeight) - y),
			})
		}
	}
	return v
}

// LineChart renders one line per counter over the same month axis.
func LineChart(records []core.Record) LineChartView {
	f := newFrame(records, lineKeys)
	v := LineChartView{Frame: f, Series: make([]Series, 0, len(lineKeys))}
	for _, key := range lineKeys {
		st := mustStatus(key)
		s := Series{Key: key, Label: st.Label, Color: st.Color, Points: make([]Point, 0, len(records))}
		path := make([]byte, 0, len(records)*12)
		for i, r := range records {
			p := Point{Month: r.Month, Value: r.Count(key), X: f.Labels[i].X, Y: f.Scale.y(r.Count(key))}
			s.Points = append(s.Points, p)
			if i > 0 {
				path = append(path, ' ')
			}
			path = strconv.AppendFloat(path, p.X, 'f', -1, 64)
			path = append(path, ',')
			path = strconv.AppendFloat(path, p.Y, 'f', -1, 64)
		}
		s.Path = string(path)
		v.Series = append(v.Series, s)
	}
	return v
}

func newFrame(records []core.Record, keys []core.StatusKey) Frame {
	var peak int64
	for _, r := range records {
		for _, k := range keys {
			if c := r.Count(k); c > peak {
				peak = c
			}
		}
	}
	sc := NewScale(peak)
	f := Frame{
		Width:      ChartWidth,
		Height:     ChartHeight,
		PlotLeft:   marginLeft,
		PlotRight:  marginLeft + plotWidth,
		PlotTop:    marginTop,
		PlotBottom: marginTop + plotHeight,
		Scale:      sc,
		Ticks:      make([]Tick, 0, gridLines),
		Labels:     make([]AxisLabel, 0, len(records)),
	}
	for i := 0; i < gridLines; i++ {
		val := sc.Step * int64(i)
		f.Ticks = append(f.Ticks, Tick{Value: val, Label: strconv.FormatInt(val, 10), Y: sc.y(val)})
	}
	if n := len(records); n > 0 {
		band := float64(plotWidth) / float64(n)
		for i, r := range records {
			f.Labels = append(f.Labels, AxisLabel{
				Text:  r.ShortMonth(),
				Title: r.Month,
				X:     round1(float64(marginLeft) + (float64(i)+0.5)*band),
				Y:     ChartHeight - 8,
			})
		}
	}
	for _, k := range keys {
		f.Legend = append(f.Legend, mustStatus(k))
	}
	return f
}

// maxStep is the largest step whose four multiples fit in an int64.
const maxStep = math.MaxInt64 / (gridLines - 1)

// NewScale picks the smallest nice tick step so that four steps cover peak.
// Peaks beyond the int64 range of four steps clamp Max to math.MaxInt64.
func NewScale(peak int64) Scale {
	step := niceStep(float64(peak) / float64(gridLines-1))
	if step == maxStep {
		return Scale{Step: step, Max: math.MaxInt64}
	}
	return Scale{Step: step, Max: step * (gridLines - 1)}
}

var stepMultipliers = []float64{1, 2, 2.5, 5, 10}

func niceStep(raw float64) int64 {
	if raw <= 1 {
		return 1
	}
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, m := range stepMultipliers {
		c := m * mag
		if c != math.Trunc(c) || c < raw {
			continue
		}
		if c >= float64(maxStep) {
			return maxStep
		}
		return int64(c)
	}
	return maxStep
}

func (s Scale) y(v int64) float64 {
	if s.Max <= 0 {
		return float64(marginTop + plotHeight)
	}
	return round1(float64(marginTop) + float64(plotHeight)*(1-float64(v)/float64(s.Max)))
}

func mustStatus(key core.StatusKey) core.Status {
	st, err := core.LookupStatus(key)
	if err != nil {
		panic(err)
	}
	return st
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
