// Package layout computes the complete geometry of a Violin SuperPlot.
//
// [Build] runs every group through the core pipeline
//
//	density.Reconcile → density.Estimate → stack.Stack → geometry.Build
//
// adds the summary skeleton and the statistical comparison, then derives the
// value axis and the optional significance annotation. The result is a
// render-ready [Layout] that sinks turn into SVG, PNG, PDF or JSON.
//
// Recoverable problems (a replicate that cannot be fitted, a group whose
// replicates do not overlap, a failed statistical test) never abort the
// layout. They are collected in [Layout.Warnings].
package layout

import (
	"math"

	"github.com/matzehuels/superviolin/pkg/dataset"
	"github.com/matzehuels/superviolin/pkg/errors"
	"github.com/matzehuels/superviolin/pkg/stats"
	"github.com/matzehuels/superviolin/pkg/violin/density"
	"github.com/matzehuels/superviolin/pkg/violin/geometry"
	"github.com/matzehuels/superviolin/pkg/violin/palette"
	"github.com/matzehuels/superviolin/pkg/violin/skeleton"
	"github.com/matzehuels/superviolin/pkg/violin/stack"
)

// MaxObservations caps the number of finite values a layout will fit.
const MaxObservations = 1_000_000

// Figure defaults, in inches and points.
const (
	DefaultHeight       = 5 / 2.54
	DefaultLineWidth    = 1.0
	DefaultSepLineWidth = 0.5
)

// GroupSpacing is the distance between neighbouring group anchors.
const GroupSpacing = 2.0

// Limits is an optional user-supplied value-axis range.
type Limits struct {
	Lo, Hi float64
	Set    bool
}

// Options configures Build. The zero value selects the defaults of every
// stage.
type Options struct {
	GridSpan    density.Span
	GridPoints  int
	DensityMode density.Mode
	Bandwidth   float64
	Area        float64
	Scale       float64

	// Width is the half-width multiplier of each violin.
	Width float64

	ReplicateCentre skeleton.Centre
	Centre          skeleton.Centre
	ErrorBar        skeleton.ErrorBar

	Paired      bool
	StatsOnPlot bool
	YLimits     Limits

	Palette string
	Seed    uint64

	XLabel       string
	YLabel       string
	ShowLegend   bool
	LineWidth    float64
	SepLineWidth float64
}

// GroupResult is the computed geometry of one group.
type GroupResult struct {
	Label  string
	Index  int
	Anchor float64

	// Domain is nil when the group's replicates could not be reconciled.
	Domain *density.Domain
	Stack  *stack.Stacked
	Violin *geometry.Violin

	// Skeleton is nil when the group has no replicate central values.
	Skeleton *skeleton.Skeleton

	// Centrals holds one central value per replicate, NaN when absent.
	Centrals []float64

	// Factor is the bandwidth factor applied to this group's fits.
	Factor float64

	Problems []error
}

// Layout is an immutable, render-ready Violin SuperPlot.
type Layout struct {
	Groups     []GroupResult
	Replicates []string
	Colours    []string

	Axis       Range
	Annotation *Annotation
	Stats      *stats.Comparison

	XLabel       string
	YLabel       string
	ShowLegend   bool
	Width        float64
	Height       float64
	LineWidth    float64
	SepLineWidth float64

	Warnings []error

	byLabel map[string]int
}

// Group returns the result for a group label.
func (l *Layout) Group(label string) (GroupResult, bool) {
	i, ok := l.byLabel[label]
	if !ok {
		return GroupResult{}, false
	}
	return l.Groups[i], true
}

// Labels returns the group labels in plotting order.
func (l *Layout) Labels() []string {
	out := make([]string, len(l.Groups))
	for i, g := range l.Groups {
		out[i] = g.Label
	}
	return out
}

// Build computes the layout of every group in g.
// Configuration errors (unknown options, too few colours, oversized input) are
// returned; data problems are recorded as warnings.
func Build(g *dataset.Grouped, opts Options) (*Layout, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if g.Len() > MaxObservations {
		return nil, errors.New(errors.ErrCodeInputTooLarge,
			"%d observations exceed the limit of %d", g.Len(), MaxObservations)
	}

	colours, err := palette.Resolve(opts.Palette, len(g.Replicates), opts.Seed)
	if err != nil {
		return nil, err
	}

	l := &Layout{
		Groups:       make([]GroupResult, len(g.Groups)),
		Replicates:   append([]string(nil), g.Replicates...),
		Colours:      palette.Hex(colours[:len(g.Replicates)]),
		XLabel:       opts.XLabel,
		YLabel:       opts.YLabel,
		ShowLegend:   opts.ShowLegend,
		Width:        1 + float64(len(g.Groups))/2,
		Height:       DefaultHeight,
		LineWidth:    opts.LineWidth,
		SepLineWidth: opts.SepLineWidth,
		byLabel:      make(map[string]int, len(g.Groups)),
	}

	var problems errors.Problems
	for i, label := range g.Groups {
		res, err := buildGroup(g, label, i, opts)
		if err != nil {
			return nil, err
		}
		for _, p := range res.Problems {
			problems.Add(p)
		}
		l.Groups[i] = res
		l.byLabel[label] = i
	}

	if len(g.Groups) >= 2 {
		cmp, err := compare(l, opts)
		if err != nil {
			problems.Add(err)
		} else {
			l.Stats = cmp
		}
	}

	auto := Axis(l.Groups, Limits{})
	l.Axis = auto
	if opts.StatsOnPlot && l.Stats != nil {
		ann, axis, err := Annotate(l.Stats, auto, l.Labels())
		if err != nil {
			problems.Add(err)
		} else if ann != nil {
			l.Annotation = ann
			l.Axis = axis
		}
	}
	if opts.YLimits.Set {
		l.Axis = Axis(l.Groups, opts.YLimits)
	}

	l.Warnings = problems.All()
	return l, nil
}

func buildGroup(g *dataset.Grouped, label string, i int, opts Options) (GroupResult, error) {
	samples := g.Samples(label)
	res := GroupResult{Label: label, Index: i, Anchor: GroupSpacing * float64(i)}

	centrals, centralProblems, err := skeleton.CentralValues(g, label, opts.ReplicateCentre)
	if err != nil {
		return res, err
	}
	res.Centrals = centrals
	res.Problems = append(res.Problems, centralProblems...)

	dom, warnings, err := density.Reconcile(samples, density.GridOptions{Span: opts.GridSpan, Points: opts.GridPoints})
	res.Problems = append(res.Problems, warnings...)
	if err != nil {
		if !errors.IsRecoverable(err) {
			return res, err
		}
		res.Problems = append(res.Problems, err)
		res.Violin = geometry.Build(geometry.Input{Group: label, Replicates: g.Replicates, Anchor: res.Anchor, Width: opts.Width})
	} else {
		res.Domain = dom
		results := make([]density.Result, len(samples))
		for j, s := range samples {
			results[j] = density.Estimate(s, dom.Grid, density.Options{
				Mode:      opts.DensityMode,
				Bandwidth: opts.Bandwidth,
				Area:      opts.Area,
			})
		}
		res.Factor = density.Factor(results)

		stacked, stackProblems := stack.Stack(results, dom.Len(), opts.Scale)
		res.Problems = append(res.Problems, dedupEmpty(stackProblems, warnings)...)
		res.Stack = stacked
		res.Violin = geometry.Build(geometry.Input{
			Group:      label,
			Replicates: g.Replicates,
			Grid:       dom.Grid,
			Stack:      stacked.Bands,
			Centres:    centrals,
			Anchor:     res.Anchor,
			Width:      opts.Width,
		})
	}

	sk, err := skeleton.Build(label, res.Anchor, centrals, skeleton.Options{Centre: opts.Centre, ErrorBar: opts.ErrorBar})
	switch {
	case err == nil:
		res.Skeleton = sk
	case errors.IsRecoverable(err):
		res.Problems = append(res.Problems, err)
	default:
		return res, err
	}
	return res, nil
}

// dedupEmpty drops INSUFFICIENT_DATA problems already reported by Reconcile.
func dedupEmpty(problems, reported []error) []error {
	if len(reported) == 0 {
		return problems
	}
	out := problems[:0:0]
	for _, p := range problems {
		if errors.Is(p, errors.ErrCodeInsufficientData) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func compare(l *Layout, opts Options) (*stats.Comparison, error) {
	groups := make([]stats.Group, len(l.Groups))
	for i, gr := range l.Groups {
		grp := stats.Group{Label: gr.Label}
		for j, v := range gr.Centrals {
			if math.IsNaN(v) {
				continue
			}
			grp.Replicates = append(grp.Replicates, l.Replicates[j])
			grp.Values = append(grp.Values, v)
		}
		groups[i] = grp
	}
	return stats.Compare(groups, stats.Options{Paired: opts.Paired})
}

func (o Options) withDefaults() Options {
	if o.GridSpan == "" {
		o.GridSpan = density.SpanIntersection
	}
	if o.DensityMode == "" {
		o.DensityMode = density.ModeArea
	}
	if o.Width <= 0 {
		o.Width = geometry.DefaultWidth
	}
	if o.Scale <= 0 {
		o.Scale = stack.DefaultScale
	}
	if o.ReplicateCentre == "" {
		o.ReplicateCentre = skeleton.Mean
	}
	if o.Centre == "" {
		o.Centre = skeleton.Mean
	}
	if o.ErrorBar == "" {
		o.ErrorBar = skeleton.SEM
	}
	if o.Palette == "" {
		o.Palette = palette.Default
	}
	if o.Seed == 0 {
		o.Seed = palette.DefaultSeed
	}
	if o.LineWidth <= 0 {
		o.LineWidth = DefaultLineWidth
	}
	if o.SepLineWidth <= 0 {
		o.SepLineWidth = DefaultSepLineWidth
	}
	return o
}

func (o Options) validate() error {
	switch {
	case !density.ValidSpans[o.GridSpan]:
		return errors.New(errors.ErrCodeInvalidConfig, "invalid grid span: %q", o.GridSpan)
	case !density.ValidModes[o.DensityMode]:
		return errors.New(errors.ErrCodeInvalidConfig, "invalid density mode: %q", o.DensityMode)
	case !skeleton.ValidReplicateCentres[o.ReplicateCentre]:
		return errors.New(errors.ErrCodeInvalidConfig, "invalid replicate centre: %q", o.ReplicateCentre)
	case !skeleton.ValidGroupCentres[o.Centre]:
		return errors.New(errors.ErrCodeInvalidConfig, "invalid centre: %q", o.Centre)
	case !skeleton.ValidErrorBars[o.ErrorBar]:
		return errors.New(errors.ErrCodeInvalidConfig, "invalid error bars: %q", o.ErrorBar)
	case o.YLimits.Set && !(o.YLimits.Hi > o.YLimits.Lo):
		return errors.New(errors.ErrCodeInvalidConfig, "upper y limit must exceed lower")
	}
	return errors.ValidateBandwidth(o.Bandwidth)
}
