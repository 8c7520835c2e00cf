// ABOUTME: Standalone HTML page rendering for plotly figures
// ABOUTME: Writes a self-contained report that loads plotly.js from a CDN
package chart

import (
	"html/template"
	"io"
)

// PlotlyScript is the plotly.js bundle the pages load
const PlotlyScript = "https://cdn.plot.ly/plotly-2.35.2.min.js"

// Page is a titled set of figures with optional text notes
type Page struct {
	Title   string
	Notes   []string
	Figures []Figure
}

var page = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
  <script src="{{.Script}}"></script>
  <style>
    body { font-family: sans-serif; margin: 2em; }
    .figure { width: 100%; height: 600px; }
    pre { background: #f4f4f4; padding: 1em; }
  </style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Notes}}<pre>{{.}}</pre>
{{end}}
{{range $i, $f := .Figures}}<div id="figure-{{$i}}" class="figure"></div>
{{end}}
<script>
  const figures = {{.Figures}};
  figures.forEach((f, i) => Plotly.newPlot("figure-" + i, f.data, f.layout));
</script>
</body>
</html>
`))

// WriteHTML renders p as a standalone HTML document
func WriteHTML(w io.Writer, p Page) error {
	return page.Execute(w, struct {
		Page
		Script string
	}{p, PlotlyScript})
}
