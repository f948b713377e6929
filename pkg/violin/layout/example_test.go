package layout_test

import (
	"fmt"

	"github.com/matzehuels/superviolin/pkg/dataset"
	"github.com/matzehuels/superviolin/pkg/violin/layout"
)

func Example() {
	obs, _ := dataset.Demo().Observations(dataset.DefaultColumns())
	g, _ := dataset.Group(obs, nil)

	l, err := layout.Build(g, layout.Options{StatsOnPlot: true})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, gr := range l.Groups {
		fmt.Printf("%s at x=%.0f with %d stripes\n", gr.Label, gr.Anchor, len(gr.Violin.Bands))
	}
	fmt.Println("brackets:", len(l.Annotation.Brackets))
	// Output:
	// control at x=0 with 3 stripes
	// treated at x=2 with 3 stripes
	// brackets: 1
}
