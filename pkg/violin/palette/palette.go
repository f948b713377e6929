// Package palette resolves replicate colours from a colour map name or an
// explicit list such as "red, #00ff00, blue".
package palette

import (
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/superviolin/pkg/errors"
)

// Default is the colour map used when none is configured.
const Default = "Set2"

// DefaultSeed makes sequential palettes reproducible between runs.
const DefaultSeed uint64 = 2021

// qualitative maps are used in order, one colour per replicate.
var qualitative = map[string][]string{
	"Set1":    {"#e41a1c", "#377eb8", "#4daf4a", "#984ea3", "#ff7f00", "#ffff33", "#a65628", "#f781bf", "#999999"},
	"Set2":    {"#66c2a5", "#fc8d62", "#8da0cb", "#e78ac3", "#a6d854", "#ffd92f", "#e5c494", "#b3b3b3"},
	"Set3":    {"#8dd3c7", "#ffffb3", "#bebada", "#fb8072", "#80b1d3", "#fdb462", "#b3de69", "#fccde5", "#d9d9d9", "#bc80bd", "#ccebc5", "#ffed6f"},
	"Pastel1": {"#fbb4ae", "#b3cde3", "#ccebc5", "#decbe4", "#fed9a6", "#ffffcc", "#e5d8bd", "#fddaec", "#f2f2f2"},
	"Pastel2": {"#b3e2cd", "#fdcdac", "#cbd5e8", "#f4cae4", "#e6f5c9", "#fff2ae", "#f1e2cc", "#cccccc"},
	"Dark2":   {"#1b9e77", "#d95f02", "#7570b3", "#e7298a", "#66a61e", "#e6ab02", "#a6761d", "#666666"},
	"Accent":  {"#7fc97f", "#beaed4", "#fdc086", "#ffff99", "#386cb0", "#f0027f", "#bf5b17", "#666666"},
	"Paired":  {"#a6cee3", "#1f78b4", "#b2df8a", "#33a02c", "#fb9a99", "#e31a1c", "#fdbf6f", "#ff7f00", "#cab2d6", "#6a3d9a", "#ffff99", "#b15928"},
	"tab10":   {"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd", "#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf"},
}

// sequential maps are defined by evenly spaced stops and interpolated.
var sequential = map[string][]string{
	"viridis": {"#440154", "#3b528b", "#21918c", "#5ec962", "#fde725"},
	"plasma":  {"#0d0887", "#7e03a8", "#cc4778", "#f89540", "#f0f921"},
	"magma":   {"#000004", "#51127c", "#b73779", "#fc8961", "#fcfdbf"},
	"inferno": {"#000004", "#56106e", "#bb3754", "#f98e09", "#fcffa4"},
	"cividis": {"#00224e", "#414d6b", "#7c7b78", "#bcaf6f", "#fee838"},
	"Blues":   {"#f7fbff", "#c6dbef", "#6baed6", "#2171b5", "#08306b"},
	"Greens":  {"#f7fcf5", "#c7e9c0", "#74c476", "#238b45", "#00441b"},
	"Reds":    {"#fff5f0", "#fcbba1", "#fb6a4a", "#cb181d", "#67000d"},
	"Purples": {"#fcfbfd", "#dadaeb", "#9e9ac8", "#6a51a3", "#3f007d"},
	"Oranges": {"#fff5eb", "#fdd0a2", "#fd8d3c", "#d94801", "#7f2704"},
	"Greys":   {"#ffffff", "#d9d9d9", "#969696", "#525252", "#000000"},
}

// named covers the basic colour names accepted in explicit lists.
var named = map[string]string{
	"black": "#000000", "white": "#ffffff", "red": "#ff0000", "green": "#008000",
	"blue": "#0000ff", "yellow": "#ffff00", "cyan": "#00ffff", "magenta": "#ff00ff",
	"orange": "#ffa500", "purple": "#800080", "pink": "#ffc0cb", "brown": "#a52a2a",
	"grey": "#808080", "gray": "#808080", "lightgrey": "#d3d3d3", "lightgray": "#d3d3d3",
	"darkgrey": "#a9a9a9", "darkgray": "#a9a9a9", "navy": "#000080", "teal": "#008080",
	"olive": "#808000", "maroon": "#800000", "lime": "#00ff00", "gold": "#ffd700",
	"salmon": "#fa8072", "coral": "#ff7f50", "violet": "#ee82ee", "indigo": "#4b0082",
	"turquoise": "#40e0d0", "skyblue": "#87ceeb", "steelblue": "#4682b4", "tomato": "#ff6347",
	"crimson": "#dc143c", "khaki": "#f0e68c", "plum": "#dda0dd", "orchid": "#da70d6",
	"k": "#000000", "w": "#ffffff", "r": "#ff0000", "g": "#008000", "b": "#0000ff",
	"y": "#bfbf00", "c": "#00bfbf", "m": "#bf00bf",
}

// Names returns every supported colour map name, sorted.
func Names() []string {
	out := make([]string, 0, len(qualitative)+len(sequential))
	for name := range qualitative {
		out = append(out, name)
	}
	for name := range sequential {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Resolve returns n colours for spec, which is either a colour map name or a
// comma-separated list of colours.
//
// Qualitative maps yield their first n colours. Sequential maps are sampled at
// (i+2)/(n+2), avoiding the pale end, and shuffled with seed so neighbouring
// stripes contrast.
func Resolve(spec string, n int, seed uint64) ([]colorful.Color, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		spec = Default
	}

	var (
		out []colorful.Color
		err error
	)
	switch {
	case strings.Contains(spec, ","):
		out, err = Parse(errors.ParseList(spec))
	case qualitative[spec] != nil:
		out, err = Parse(qualitative[spec])
		if err == nil && len(out) > n {
			out = out[:n]
		}
	case sequential[spec] != nil:
		out, err = sample(sequential[spec], n, seed)
	default:
		c, perr := parseColour(spec)
		if perr != nil {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown colour map: %q", spec)
		}
		out = []colorful.Color{c}
	}
	if err != nil {
		return nil, err
	}
	if len(out) < n {
		return nil, errors.New(errors.ErrCodeNotEnoughColor,
			"Not enough colours for each replicate (%d colours, %d replicates)", len(out), n)
	}
	return out, nil
}

// Parse converts colour names and hex strings.
func Parse(specs []string) ([]colorful.Color, error) {
	out := make([]colorful.Color, 0, len(specs))
	for _, s := range specs {
		c, err := parseColour(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func parseColour(s string) (colorful.Color, error) {
	s = strings.TrimSpace(s)
	if hex, ok := named[strings.ToLower(s)]; ok {
		s = hex
	}
	if len(s) == 4 && s[0] == '#' {
		s = "#" + strings.Repeat(s[1:2], 2) + strings.Repeat(s[2:3], 2) + strings.Repeat(s[3:4], 2)
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid colour %q", s)
	}
	return c, nil
}

// sample evaluates a stop-defined map at (i+2)/(n+2) and shuffles the result.
func sample(stops []string, n int, seed uint64) ([]colorful.Color, error) {
	anchors, err := Parse(stops)
	if err != nil {
		return nil, err
	}
	out := make([]colorful.Color, n)
	for i := range out {
		out[i] = At(anchors, float64(i+2)/float64(n+2))
	}
	r := rand.New(rand.NewPCG(seed, seed))
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out, nil
}

// At linearly interpolates evenly spaced anchors at t in [0, 1].
func At(anchors []colorful.Color, t float64) colorful.Color {
	if len(anchors) == 1 || t <= 0 {
		return anchors[0]
	}
	if t >= 1 {
		return anchors[len(anchors)-1]
	}
	pos := t * float64(len(anchors)-1)
	i := int(pos)
	return anchors[i].BlendRgb(anchors[i+1], pos-float64(i)).Clamped()
}

// Hex formats colours as "#rrggbb".
func Hex(colours []colorful.Color) []string {
	out := make([]string, len(colours))
	for i, c := range colours {
		out[i] = c.Hex()
	}
	return out
}
