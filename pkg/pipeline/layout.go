package pipeline

import (
	"math"

	"github.com/matzehuels/superviolin/pkg/dataset"
	"github.com/matzehuels/superviolin/pkg/stats"
	"github.com/matzehuels/superviolin/pkg/violin/layout"
	"github.com/matzehuels/superviolin/pkg/violin/skeleton"
)

// ComputeLayout groups the table and builds the plot.
func ComputeLayout(t *dataset.Table, opts Options) (*layout.Layout, error) {
	g, err := Group(t, opts)
	if err != nil {
		return nil, err
	}
	return computeGroupedLayout(g, opts)
}

func computeGroupedLayout(g *dataset.Grouped, opts Options) (*layout.Layout, error) {
	lopts, err := opts.LayoutOptions()
	if err != nil {
		return nil, err
	}
	return layout.Build(g, lopts)
}

// Compare runs the statistical comparison on the replicate central values
// without fitting any densities. It matches the comparison embedded in a
// layout built from the same options.
func Compare(g *dataset.Grouped, opts Options) (*stats.Comparison, error) {
	groups := make([]stats.Group, len(g.Groups))
	for i, label := range g.Groups {
		centrals, _, err := skeleton.CentralValues(g, label, skeleton.Centre(opts.ReplicateCentre))
		if err != nil {
			return nil, err
		}
		grp := stats.Group{Label: label}
		for j, v := range centrals {
			if math.IsNaN(v) {
				continue
			}
			grp.Replicates = append(grp.Replicates, g.Replicates[j])
			grp.Values = append(grp.Values, v)
		}
		groups[i] = grp
	}
	return stats.Compare(groups, opts.StatsOptions())
}
