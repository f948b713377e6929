// Package skeleton computes replicate central values and the summary skeleton
// (centre tick, error ticks and stem) drawn over each violin.
package skeleton

import (
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/matzehuels/superviolin/pkg/dataset"
	"github.com/matzehuels/superviolin/pkg/errors"
)

// Centre selects how a set of values is summarized.
type Centre string

const (
	Mean   Centre = "mean"
	Median Centre = "median"

	// Robust is the mean of the values between the 2.5th and 97.5th
	// percentiles. Only valid for replicate central values.
	Robust Centre = "robust"
)

// ErrorBar selects the skeleton's error span.
type ErrorBar string

const (
	SEM  ErrorBar = "SEM"
	SD   ErrorBar = "SD"
	CI95 ErrorBar = "CI95"
)

// Accepted option values.
var (
	ValidReplicateCentres = map[Centre]bool{Mean: true, Median: true, Robust: true}
	ValidGroupCentres     = map[Centre]bool{Mean: true, Median: true}
	ValidErrorBars        = map[ErrorBar]bool{SEM: true, SD: true, CI95: true}
)

// Tick geometry relative to the median width of 0.4 data units.
const (
	medianWidth  = 0.4
	CentreHalf   = medianWidth / 1.5
	ErrorBarHalf = medianWidth / 4.5
)

// CentralValue summarizes one replicate's values.
func CentralValue(values []float64, mode Centre) (float64, error) {
	if len(values) == 0 {
		return math.NaN(), errors.New(errors.ErrCodeInsufficientData, "no values")
	}
	switch mode {
	case Mean, "":
		return mstats.Mean(values)
	case Median:
		return mstats.Median(values)
	case Robust:
		lo := Percentile(values, 2.5)
		hi := Percentile(values, 97.5)
		kept := make([]float64, 0, len(values))
		for _, v := range values {
			if v >= lo && v <= hi {
				kept = append(kept, v)
			}
		}
		if len(kept) == 0 {
			return math.NaN(), errors.New(errors.ErrCodeInsufficientData,
				"no values left between the 2.5th and 97.5th percentiles of %d values", len(values))
		}
		return mstats.Mean(kept)
	default:
		return math.NaN(), errors.New(errors.ErrCodeInvalidConfig, "invalid replicate centre: %q", mode)
	}
}

// CentralValues returns one value per replicate of group in canonical order.
// Replicates without data in the group yield NaN. A replicate whose value
// cannot be computed also yields NaN and is reported in problems; only
// non-recoverable failures are returned as err.
func CentralValues(g *dataset.Grouped, group string, mode Centre) (values []float64, problems []error, err error) {
	if !ValidReplicateCentres[mode] {
		return nil, nil, errors.New(errors.ErrCodeInvalidConfig, "invalid replicate centre: %q", mode)
	}
	samples := g.Samples(group)
	values = make([]float64, len(samples))
	for i, s := range samples {
		if s.Empty() {
			values[i] = math.NaN()
			continue
		}
		v, err := CentralValue(s.Values, mode)
		if err != nil {
			if !errors.IsRecoverable(err) {
				return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "central value of %q/%q", group, s.Replicate)
			}
			problems = append(problems, errors.Wrap(errors.GetCode(err), err, "central value of %q/%q", group, s.Replicate))
			v = math.NaN()
		}
		values[i] = v
	}
	return values, problems, nil
}

// Percentile returns the p-th percentile using linear interpolation between
// closest ranks, rank = p/100·(n-1).
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (rank-float64(lo))*(sorted[hi]-sorted[lo])
}

// Segment is a straight line in data coordinates.
type Segment struct {
	X0, Y0, X1, Y1 float64
}

// Skeleton is the summary overlay of one group.
type Skeleton struct {
	Group  string
	Anchor float64

	Centre float64
	Lower  float64
	Upper  float64

	// N is the number of replicate central values summarized.
	N int

	CentreTick Segment
	UpperTick  Segment
	LowerTick  Segment
	Stem       Segment
}

// Segments returns the four skeleton lines.
func (s *Skeleton) Segments() []Segment {
	return []Segment{s.CentreTick, s.UpperTick, s.LowerTick, s.Stem}
}

// Options configures Build.
type Options struct {
	Centre   Centre
	ErrorBar ErrorBar
}

// Build summarizes a group's replicate central values at anchor. NaN entries
// (replicates without data) are ignored. With fewer than two values the error
// span collapses onto the centre.
func Build(group string, anchor float64, centrals []float64, opts Options) (*Skeleton, error) {
	if opts.Centre == "" {
		opts.Centre = Mean
	}
	if opts.ErrorBar == "" {
		opts.ErrorBar = SEM
	}
	if !ValidGroupCentres[opts.Centre] {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "invalid centre: %q", opts.Centre)
	}
	if !ValidErrorBars[opts.ErrorBar] {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "invalid error bars: %q", opts.ErrorBar)
	}

	values := make([]float64, 0, len(centrals))
	for _, v := range centrals {
		if !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil, errors.New(errors.ErrCodeInsufficientData, "group %q has no replicate values", group)
	}

	centre, err := CentralValue(values, opts.Centre)
	if err != nil {
		return nil, err
	}
	lower, upper := centre, centre
	if len(values) >= 2 {
		sd, err := mstats.StandardDeviationSample(values)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "standard deviation of %q", group)
		}
		switch opts.ErrorBar {
		case SEM:
			sem := sd / math.Sqrt(float64(len(values)))
			lower, upper = centre-sem, centre+sem
		case SD:
			lower, upper = centre-sd, centre+sd
		case CI95:
			mean, _ := mstats.Mean(values)
			z := distuv.UnitNormal.Quantile(0.975)
			lower, upper = mean-z*sd, mean+z*sd
		}
	}

	return &Skeleton{
		Group:      group,
		Anchor:     anchor,
		Centre:     centre,
		Lower:      lower,
		Upper:      upper,
		N:          len(values),
		CentreTick: Segment{anchor - CentreHalf, centre, anchor + CentreHalf, centre},
		UpperTick:  Segment{anchor - ErrorBarHalf, upper, anchor + ErrorBarHalf, upper},
		LowerTick:  Segment{anchor - ErrorBarHalf, lower, anchor + ErrorBarHalf, lower},
		Stem:       Segment{anchor, lower, anchor, upper},
	}, nil
}
