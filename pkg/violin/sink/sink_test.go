package sink

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/matzehuels/superviolin/pkg/dataset"
	"github.com/matzehuels/superviolin/pkg/violin/layout"
)

func demoLayout(t *testing.T, opts layout.Options) *layout.Layout {
	t.Helper()
	obs, err := dataset.Demo().Observations(dataset.DefaultColumns())
	if err != nil {
		t.Fatalf("Observations() error: %v", err)
	}
	g, err := dataset.Group(obs, nil)
	if err != nil {
		t.Fatalf("Group() error: %v", err)
	}
	l, err := layout.Build(g, opts)
	if err != nil {
		t.Fatalf("layout.Build() error: %v", err)
	}
	return l
}

func TestRenderSVG(t *testing.T) {
	l := demoLayout(t, layout.Options{StatsOnPlot: true, YLabel: "value"})
	svg := string(RenderSVG(l))

	if !strings.HasPrefix(svg, "<svg ") {
		t.Fatalf("output does not start with <svg: %.40q", svg)
	}
	if !strings.HasSuffix(svg, "</svg>\n") {
		t.Error("output is not closed")
	}

	counts := map[string]int{
		`class="stripe"`:  6,
		`class="outline"`: 2,
		`class="marker"`:  6,
		`class="bracket"`: 1,
		`class="p-value"`: 1,
		`class="y-label"`: 1,
		`class="legend"`:  0,
	}
	for needle, want := range counts {
		if got := strings.Count(svg, needle); got != want {
			t.Errorf("count(%s) = %d, want %d", needle, got, want)
		}
	}
	for _, c := range l.Colours {
		if !strings.Contains(svg, `fill="`+c+`"`) {
			t.Errorf("colour %s not used", c)
		}
	}
	if !strings.Contains(svg, ">control</text>") || !strings.Contains(svg, ">treated</text>") {
		t.Error("group labels missing")
	}
}

func TestRenderSVGLegendAndOptions(t *testing.T) {
	l := demoLayout(t, layout.Options{ShowLegend: true, XLabel: "a < b"})
	svg := string(RenderSVG(l, WithPixelsPerInch(72), WithBackground("white"), WithFontFamily("Arial")))

	if !strings.Contains(svg, `class="legend"`) {
		t.Error("legend missing")
	}
	for _, rep := range l.Replicates {
		if !strings.Contains(svg, ">"+rep+"</text>") {
			t.Errorf("legend entry %q missing", rep)
		}
	}
	if !strings.Contains(svg, "a &lt; b") {
		t.Error("x label not escaped")
	}
	if !strings.Contains(svg, `font-family="Arial"`) {
		t.Error("font family not applied")
	}
	if !strings.Contains(svg, `fill="white"`) {
		t.Error("background not applied")
	}
	// 2 groups → 2in + legend at 72 ppi.
	want := `width="209"`
	if !strings.Contains(svg, want) {
		t.Errorf("expected %s in header", want)
	}
}

func TestRenderJSON(t *testing.T) {
	l := demoLayout(t, layout.Options{StatsOnPlot: true})

	data, err := RenderJSON(l, WithJSONSource("demo.csv"), WithJSONCurves())
	if err != nil {
		t.Fatalf("RenderJSON() error: %v", err)
	}

	var out jsonOutput
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("json.Unmarshal() error: %v", err)
	}
	if out.Source != "demo.csv" {
		t.Errorf("Source = %q, want demo.csv", out.Source)
	}
	if len(out.Groups) != 2 {
		t.Fatalf("Groups count = %d, want 2", len(out.Groups))
	}
	if len(out.Replicates) != 3 {
		t.Errorf("Replicates count = %d, want 3", len(out.Replicates))
	}
	g := out.Groups[0]
	if len(g.Stripes) != 3 || len(g.Markers) != 3 {
		t.Errorf("stripes/markers = %d/%d, want 3/3", len(g.Stripes), len(g.Markers))
	}
	if g.Skeleton == nil {
		t.Error("skeleton missing")
	}
	if len(g.Grid) == 0 || len(g.Curves) != 3 {
		t.Errorf("curves not exported: grid=%d curves=%d", len(g.Grid), len(g.Curves))
	}
	if out.Stats == nil || out.Annotation == nil {
		t.Error("stats or annotation missing")
	}
}

func TestRenderJSONMissingReplicate(t *testing.T) {
	obs := []dataset.Observation{}
	for i, v := range []float64{1, 2, 3, 4, 5, 2.5} {
		obs = append(obs, dataset.Observation{Group: "a", Replicate: "r1", Value: v})
		obs = append(obs, dataset.Observation{Group: "a", Replicate: "r2", Value: v + 0.5})
		if i < 4 {
			obs = append(obs, dataset.Observation{Group: "b", Replicate: "r1", Value: v + 1})
		}
	}
	g, err := dataset.Group(obs, nil)
	if err != nil {
		t.Fatal(err)
	}
	l, err := layout.Build(g, layout.Options{})
	if err != nil {
		t.Fatal(err)
	}

	data, err := RenderJSON(l)
	if err != nil {
		t.Fatalf("RenderJSON() error: %v", err)
	}
	var out jsonOutput
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	b := out.Groups[1]
	if b.Centrals[0] == nil || b.Centrals[1] != nil {
		t.Errorf("centrals = %v, want [value, null]", b.Centrals)
	}
	if len(out.Warnings) == 0 {
		t.Error("expected a warning for the empty replicate")
	}
}

func TestRenderPNG(t *testing.T) {
	l := demoLayout(t, layout.Options{StatsOnPlot: true, ShowLegend: true})
	data, err := RenderPNG(l, WithDPI(72))
	if err != nil {
		t.Fatalf("RenderPNG() error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
}

func TestRenderPDF(t *testing.T) {
	l := demoLayout(t, layout.Options{})
	data, err := RenderPDF(l)
	if err != nil {
		t.Fatalf("RenderPDF() error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("output is not a PDF")
	}
}
