package server

import (
	"html/template"

	"github.com/matzehuels/superviolin/pkg/pipeline"
	"github.com/matzehuels/superviolin/pkg/violin/palette"
)

type defaults struct {
	Centre   string
	ErrorBar string
	Palette  string
	Palettes []string
	Width    float64
	DPI      int
	Formats  []string
}

type indexData struct {
	Version  string
	MaxMB    int64
	Defaults defaults
}

func pipelineDefaults() defaults {
	return defaults{
		Centre:   pipeline.DefaultCentre,
		ErrorBar: pipeline.DefaultErrorBar,
		Palette:  pipeline.DefaultPalette,
		Palettes: palette.Names(),
		Width:    pipeline.DefaultWidth,
		DPI:      pipeline.DefaultDPI,
		Formats:  []string{pipeline.FormatSVG, pipeline.FormatPNG, pipeline.FormatPDF, pipeline.FormatJSON},
	}
}

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Superviolin</title>
<style>
body { font-family: sans-serif; max-width: 52rem; margin: 2rem auto; color: #222; }
fieldset { border: 1px solid #ccc; margin-bottom: 1rem; }
label { display: inline-block; min-width: 11rem; margin: .2rem 0; }
#plot img, #plot object { max-width: 100%; }
footer { color: #888; font-size: .8rem; margin-top: 2rem; }
</style>
</head>
<body>
<h1>Violin SuperPlots</h1>
<form id="form" action="/api/render" method="post" enctype="multipart/form-data" target="_blank">
<fieldset>
<legend>Data (CSV or Excel, up to {{.MaxMB}} MB)</legend>
<input type="file" name="file" accept=".csv,.xlsx,.xlsm,.xls">
<label><input type="checkbox" name="demo"> use demo data</label><br>
<label>Layout <select name="data_format"><option value="tidy">tidy</option><option value="untidy">untidy (sheet per replicate)</option></select></label><br>
<label>Condition column <input name="condition" placeholder="condition"></label>
<label>Value column <input name="value" placeholder="value"></label>
<label>Replicate column <input name="replicate" placeholder="replicate"></label><br>
<label>Order <input name="order" placeholder="ctrl, drug A, drug B"></label>
</fieldset>
<fieldset>
<legend>Plot</legend>
<label>Replicate centre <select name="replicate_centre"><option>mean</option><option>median</option><option>robust</option></select></label>
<label>Centre <select name="centre"><option>mean</option><option>median</option></select></label>
<label>Error bars <select name="error_bars"><option>SEM</option><option>SD</option><option>CI95</option></select></label><br>
<label>Colours <input name="colours" list="palettes" placeholder="{{.Defaults.Palette}}"></label>
<datalist id="palettes">{{range .Defaults.Palettes}}<option value="{{.}}">{{end}}</datalist>
<label>Width <input name="width" type="number" step="0.05" placeholder="{{.Defaults.Width}}"></label>
<label>Y limits <input name="ylim" placeholder="0, 10"></label><br>
<label>X label <input name="xlabel"></label>
<label>Y label <input name="ylabel"></label><br>
<label><input type="checkbox" name="paired"> paired</label>
<label><input type="checkbox" name="stats_on_plot"> statistics on plot</label>
<label><input type="checkbox" name="legend"> legend</label>
</fieldset>
<fieldset>
<legend>Output</legend>
<label>Format <select name="format">{{range .Defaults.Formats}}<option>{{.}}</option>{{end}}</select></label>
<label>DPI <input name="dpi" type="number" placeholder="{{.Defaults.DPI}}"></label>
</fieldset>
<button type="submit">Render</button>
<button type="submit" formaction="/api/stats">Statistics</button>
</form>
<footer>superviolin {{.Version}}</footer>
</body>
</html>
`))
