package dataset

import (
	"math"
	"sort"

	"github.com/matzehuels/superviolin/pkg/errors"
)

// Sample is the finite values of one replicate within one group.
type Sample struct {
	Group     string
	Replicate string
	Values    []float64

	// Dropped counts NaN and infinite values excluded from Values.
	Dropped int
}

// Len returns the number of finite values.
func (s Sample) Len() int { return len(s.Values) }

// Empty reports whether the replicate has no finite values in this group.
func (s Sample) Empty() bool { return len(s.Values) == 0 }

// Bounds returns the minimum and maximum value. ok is false for an empty sample.
func (s Sample) Bounds() (lo, hi float64, ok bool) {
	if len(s.Values) == 0 {
		return 0, 0, false
	}
	lo, hi = s.Values[0], s.Values[0]
	for _, v := range s.Values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi, true
}

// Grouped is the observation set arranged by group and replicate.
//
// Replicates is the canonical replicate order: first appearance in the input.
// Every group's samples follow that order, including replicates that have no
// observations in the group, so colours and stacking positions line up.
type Grouped struct {
	Groups     []string
	Replicates []string

	samples map[string]map[string]*Sample
	total   int
}

// Group arranges observations by group and replicate.
//
// With an empty order, groups are the sorted unique labels. With an explicit
// order, only those groups are kept in that order and every name must exist.
func Group(obs []Observation, order []string) (*Grouped, error) {
	if err := errors.ValidateOrder(order); err != nil {
		return nil, err
	}

	g := &Grouped{samples: make(map[string]map[string]*Sample)}
	seenRep := make(map[string]bool)
	for _, o := range obs {
		if !seenRep[o.Replicate] {
			seenRep[o.Replicate] = true
			g.Replicates = append(g.Replicates, o.Replicate)
		}
		reps, ok := g.samples[o.Group]
		if !ok {
			reps = make(map[string]*Sample)
			g.samples[o.Group] = reps
		}
		s, ok := reps[o.Replicate]
		if !ok {
			s = &Sample{Group: o.Group, Replicate: o.Replicate}
			reps[o.Replicate] = s
		}
		if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
			s.Dropped++
			continue
		}
		s.Values = append(s.Values, o.Value)
	}

	if len(order) == 0 {
		for name := range g.samples {
			g.Groups = append(g.Groups, name)
		}
		sort.Strings(g.Groups)
	} else {
		var unknown []string
		for _, name := range order {
			if _, ok := g.samples[name]; !ok {
				unknown = append(unknown, name)
			}
		}
		if len(unknown) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "order names unknown groups: %v", unknown)
		}
		g.Groups = append([]string(nil), order...)
	}

	for _, name := range g.Groups {
		for _, s := range g.samples[name] {
			g.total += len(s.Values)
		}
	}
	if len(g.Groups) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no groups found in data")
	}
	return g, nil
}

// Len returns the number of finite observations across the kept groups.
func (g *Grouped) Len() int { return g.total }

// Sample returns the sample for a group and replicate, empty if absent.
func (g *Grouped) Sample(group, replicate string) Sample {
	if s, ok := g.samples[group][replicate]; ok {
		return *s
	}
	return Sample{Group: group, Replicate: replicate}
}

// Samples returns a group's samples in canonical replicate order.
func (g *Grouped) Samples(group string) []Sample {
	out := make([]Sample, len(g.Replicates))
	for i, rep := range g.Replicates {
		out[i] = g.Sample(group, rep)
	}
	return out
}

// ParseOrder parses a group order option such as "ctrl, drug A".
func ParseOrder(s string) ([]string, error) {
	order := errors.ParseList(s)
	if err := errors.ValidateOrder(order); err != nil {
		return nil, err
	}
	return order, nil
}
