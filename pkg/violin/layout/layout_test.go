package layout

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/superviolin/pkg/dataset"
	"github.com/matzehuels/superviolin/pkg/errors"
	"github.com/matzehuels/superviolin/pkg/stats"
)

var spread = []float64{-1, -0.6, -0.3, -0.1, 0, 0.1, 0.3, 0.6, 1, 0.2, -0.2, 0.45}

// synthetic builds groups × replicates samples centred on base[g] with a
// replicate-dependent shift.
func synthetic(t *testing.T, base map[string]float64, reps []string) *dataset.Grouped {
	t.Helper()
	shift := []float64{0, 0.25, 0.1, 0.35}
	var obs []dataset.Observation
	for group, b := range base {
		for r, rep := range reps {
			for _, d := range spread {
				obs = append(obs, dataset.Observation{Group: group, Replicate: rep, Value: b + shift[r%len(shift)] + d})
			}
		}
	}
	g, err := dataset.Group(obs, nil)
	require.NoError(t, err)
	return g
}

func demo(t *testing.T) *dataset.Grouped {
	t.Helper()
	obs, err := dataset.Demo().Observations(dataset.DefaultColumns())
	require.NoError(t, err)
	g, err := dataset.Group(obs, nil)
	require.NoError(t, err)
	return g
}

func TestBuildDemo(t *testing.T) {
	l, err := Build(demo(t), Options{})
	require.NoError(t, err)

	require.Len(t, l.Groups, 2)
	assert.Equal(t, []string{"control", "treated"}, l.Labels())
	assert.Equal(t, 0.0, l.Groups[0].Anchor)
	assert.Equal(t, 2.0, l.Groups[1].Anchor)
	assert.Len(t, l.Colours, 3)
	assert.Equal(t, 2.0, l.Width)
	assert.InDelta(t, 5/2.54, l.Height, 1e-12)
	assert.Empty(t, l.Warnings)

	for _, g := range l.Groups {
		require.NotNil(t, g.Domain)
		require.NotNil(t, g.Violin)
		require.NotNil(t, g.Skeleton)
		assert.Len(t, g.Violin.Bands, 3)
		assert.Len(t, g.Violin.Markers, 3)
		assert.Greater(t, g.Factor, 0.0)
		assert.InDelta(t, 1.0, g.Stack.Outer()[argmax(g.Stack.Outer())], 1e-9)

		assert.LessOrEqual(t, l.Axis.Min, g.Domain.Grid[0])
		assert.GreaterOrEqual(t, l.Axis.Max, g.Domain.Grid[g.Domain.Len()-1])
		assert.LessOrEqual(t, l.Axis.Min, g.Skeleton.Lower)
	}

	require.NotNil(t, l.Stats)
	assert.Equal(t, []string{"control", "treated"}, l.Stats.Groups)
	assert.Nil(t, l.Annotation)
	assert.NotEmpty(t, l.Axis.Ticks)

	g, ok := l.Group("treated")
	require.True(t, ok)
	assert.Equal(t, 1, g.Index)
	_, ok = l.Group("missing")
	assert.False(t, ok)
}

func argmax(xs []float64) int {
	best := 0
	for i, v := range xs {
		if v > xs[best] {
			best = i
		}
	}
	return best
}

func TestBuildAnnotateTwoGroups(t *testing.T) {
	g := demo(t)
	plain, err := Build(g, Options{})
	require.NoError(t, err)
	l, err := Build(g, Options{StatsOnPlot: true})
	require.NoError(t, err)

	require.NotNil(t, l.Annotation)
	require.Len(t, l.Annotation.Brackets, 1)
	b := l.Annotation.Brackets[0]
	assert.Equal(t, []float64{0, 0, 2, 2}, b.X)
	inc := 0.03 * plain.Axis.Span()
	assert.InDelta(t, plain.Axis.Max+inc, b.Y[0], 1e-9)
	assert.InDelta(t, plain.Axis.Max+2*inc, b.Y[1], 1e-9)
	assert.Equal(t, 1.0, b.TextX)
	assert.Equal(t, "P = "+stats.FormatP(l.Stats.Test.P), b.Text)

	assert.Equal(t, plain.Axis.Min, l.Axis.Min)
	assert.InDelta(t, plain.Axis.Max+10*inc, l.Axis.Max, 1e-9)
}

func TestBuildAnnotateThreeGroups(t *testing.T) {
	g := synthetic(t, map[string]float64{"a": 10, "b": 12, "c": 15}, []string{"r1", "r2", "r3"})
	plain, err := Build(g, Options{})
	require.NoError(t, err)
	require.NotNil(t, plain.Stats)
	require.NotNil(t, plain.Stats.Posthoc)

	l, err := Build(g, Options{StatsOnPlot: true})
	require.NoError(t, err)
	require.NotNil(t, l.Annotation)
	require.Len(t, l.Annotation.Brackets, 3)

	pairs := [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}}
	for i, b := range l.Annotation.Brackets {
		assert.Equal(t, pairs[i][0], b.A)
		assert.Equal(t, pairs[i][1], b.B)
		p, ok := l.Stats.Pair(b.A, b.B)
		require.True(t, ok)
		assert.Equal(t, "P = "+stats.FormatP(p), b.Text)
		assert.Equal(t, b.Y[1], b.Y[2])
		assert.Greater(t, b.Y[1], b.Y[0])
	}
	assert.Equal(t, []float64{0, 0, 4, 4}, l.Annotation.Brackets[2].X)
	assert.Greater(t, l.Annotation.Brackets[2].Y[1], l.Annotation.Brackets[0].Y[1])
	assert.InDelta(t, plain.Axis.Min+1.5*plain.Axis.Span(), l.Axis.Max, 1e-9)
}

func TestBuildUserLimits(t *testing.T) {
	l, err := Build(demo(t), Options{StatsOnPlot: true, YLimits: Limits{Lo: 0, Hi: 40, Set: true}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, l.Axis.Min)
	assert.Equal(t, 40.0, l.Axis.Max)
	assert.True(t, l.Axis.User)
	assert.NotNil(t, l.Annotation)
}

func TestBuildDegenerateGroup(t *testing.T) {
	obs := []dataset.Observation{}
	for _, v := range []float64{1, 1.5, 2, 2.5} {
		obs = append(obs,
			dataset.Observation{Group: "ok", Replicate: "r1", Value: v},
			dataset.Observation{Group: "ok", Replicate: "r2", Value: v + 0.5},
			dataset.Observation{Group: "split", Replicate: "r1", Value: v},
			dataset.Observation{Group: "split", Replicate: "r2", Value: v + 10},
		)
	}
	g, err := dataset.Group(obs, nil)
	require.NoError(t, err)

	l, err := Build(g, Options{})
	require.NoError(t, err)

	split, ok := l.Group("split")
	require.True(t, ok)
	assert.Nil(t, split.Domain)
	assert.Empty(t, split.Violin.Bands)
	require.NotNil(t, split.Skeleton)
	assert.True(t, hasCode(l.Warnings, errors.ErrCodeDegenerateDomain))

	good, _ := l.Group("ok")
	assert.Len(t, good.Violin.Bands, 2)

	union, err := Build(g, Options{GridSpan: "union"})
	require.NoError(t, err)
	split, _ = union.Group("split")
	assert.NotNil(t, split.Domain)
	assert.False(t, hasCode(union.Warnings, errors.ErrCodeDegenerateDomain))
}

func TestBuildMissingReplicate(t *testing.T) {
	obs := []dataset.Observation{}
	for _, v := range spread {
		obs = append(obs,
			dataset.Observation{Group: "a", Replicate: "r1", Value: 5 + v},
			dataset.Observation{Group: "a", Replicate: "r2", Value: 5.2 + v},
			dataset.Observation{Group: "b", Replicate: "r1", Value: 6 + v},
		)
	}
	g, err := dataset.Group(obs, nil)
	require.NoError(t, err)

	l, err := Build(g, Options{})
	require.NoError(t, err)
	b, _ := l.Group("b")
	require.Len(t, b.Violin.Bands, 2)
	assert.Len(t, b.Violin.Markers, 1)
	assert.True(t, math.IsNaN(b.Centrals[1]))
	assert.True(t, hasCode(l.Warnings, errors.ErrCodeInsufficientData))
}

func TestBuildErrors(t *testing.T) {
	g := demo(t)
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"too few colours", Options{Palette: "red,blue"}, errors.ErrCodeNotEnoughColor},
		{"unknown palette", Options{Palette: "nope"}, errors.ErrCodeInvalidConfig},
		{"grid span", Options{GridSpan: "widest"}, errors.ErrCodeInvalidConfig},
		{"centre", Options{Centre: "robust"}, errors.ErrCodeInvalidConfig},
		{"error bars", Options{ErrorBar: "IQR"}, errors.ErrCodeInvalidConfig},
		{"limits", Options{YLimits: Limits{Lo: 3, Hi: 1, Set: true}}, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(g, tt.opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestAxis(t *testing.T) {
	r := Axis(nil, Limits{})
	assert.Equal(t, 0.0, r.Min)
	assert.Equal(t, 1.0, r.Max)

	r = Axis(nil, Limits{Lo: -2, Hi: 8, Set: true})
	assert.Equal(t, -2.0, r.Min)
	assert.True(t, r.User)
	for _, tick := range r.Ticks {
		assert.GreaterOrEqual(t, tick.Value, -2.0)
		assert.LessOrEqual(t, tick.Value, 8.0)
		assert.NotEmpty(t, tick.Label)
	}
}

func TestAnnotateFourGroups(t *testing.T) {
	c := &stats.Comparison{Groups: []string{"a", "b", "c", "d"}}
	axis := Range{Min: 0, Max: 10}
	ann, got, err := Annotate(c, axis, c.Groups)
	assert.NoError(t, err)
	assert.Nil(t, ann)
	assert.Equal(t, axis, got)
}

func TestBuildFourGroupsStatsOnPlot(t *testing.T) {
	g := synthetic(t, map[string]float64{"a": 10, "b": 12, "c": 15, "d": 11}, []string{"r1", "r2", "r3"})
	l, err := Build(g, Options{StatsOnPlot: true})
	require.NoError(t, err)

	require.NotNil(t, l.Stats)
	assert.NotNil(t, l.Stats.Posthoc)
	assert.Nil(t, l.Annotation)
	assert.Empty(t, l.Warnings)
}

func TestBuildRobustTwoValueReplicate(t *testing.T) {
	var obs []dataset.Observation
	add := func(group, rep string, base float64) {
		for _, d := range spread {
			obs = append(obs, dataset.Observation{Group: group, Replicate: rep, Value: base + d})
		}
	}
	add("a", "r1", 5)
	obs = append(obs,
		dataset.Observation{Group: "a", Replicate: "r2", Value: 5},
		dataset.Observation{Group: "a", Replicate: "r2", Value: 6},
	)
	add("a", "r3", 5.2)
	add("b", "r1", 8)
	add("b", "r2", 8.3)
	add("b", "r3", 8.1)
	g, err := dataset.Group(obs, nil)
	require.NoError(t, err)

	l, err := Build(g, Options{ReplicateCentre: "robust"})
	require.NoError(t, err)
	require.Len(t, l.Groups, 2)

	a := l.Groups[0]
	require.Len(t, a.Centrals, 3)
	assert.False(t, math.IsNaN(a.Centrals[0]))
	assert.True(t, math.IsNaN(a.Centrals[1]), "two-value replicate drops out")
	assert.False(t, math.IsNaN(a.Centrals[2]))
	assert.NotNil(t, a.Skeleton)
	assert.NotNil(t, l.Groups[1].Skeleton)

	found := false
	for _, w := range l.Warnings {
		if errors.Is(w, errors.ErrCodeInsufficientData) && strings.Contains(w.Error(), `"r2"`) {
			found = true
		}
	}
	assert.True(t, found, "warnings = %v", l.Warnings)
}

func hasCode(errs []error, code errors.Code) bool {
	for _, e := range errs {
		if errors.Is(e, code) {
			return true
		}
	}
	return false
}
