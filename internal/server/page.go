// ABOUTME: Dashboard HTML page
// ABOUTME: Upload form, figure rendering and the live report feed in one template
package server

import (
	"html/template"
	"io"

	"github.com/mbakholdina/srt-drift-tracer/internal/chart"
	"github.com/mbakholdina/srt-drift-tracer/internal/protocol"
	"github.com/mbakholdina/srt-drift-tracer/internal/version"
)

var index = template.Must(template.New("index").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.Name}} | {{.Product}}</title>
  <script src="{{.Script}}"></script>
  <style>
    body { font-family: sans-serif; margin: 2em; }
    .figure { width: 100%; height: 600px; }
    #feed li { margin: 0.3em 0; }
    .error { color: #b00020; }
    pre { background: #f4f4f4; padding: 1em; }
  </style>
</head>
<body>
<h1>{{.Product}}</h1>
<p>{{.Name}}, version {{.Version}}</p>

<form id="upload">
  <input type="file" name="files" multiple required>
  <fieldset>
    <legend>Local clock</legend>
    <label><input type="radio" name="local_clock" value="Std" checked> Steady</label>
    <label><input type="radio" name="local_clock" value="Sys"> System</label>
  </fieldset>
  <fieldset>
    <legend>Remote clock</legend>
    <label><input type="radio" name="remote_clock" value="Std" checked> Steady</label>
    <label><input type="radio" name="remote_clock" value="Sys"> System</label>
  </fieldset>
  <button type="submit">Analyze</button>
</form>

<h2>Recent analyses</h2>
<ul id="feed"></ul>

<div id="report"></div>

<script>
  const reportDiv = document.getElementById("report");
  const feed = document.getElementById("feed");

  function show(report) {
    reportDiv.innerHTML = "";
    const title = document.createElement("h2");
    title.textContent = report.name;
    reportDiv.appendChild(title);
    if (report.error) {
      const p = document.createElement("p");
      p.className = "error";
      p.textContent = report.error;
      reportDiv.appendChild(p);
      return;
    }
    const pre = document.createElement("pre");
    pre.textContent = JSON.stringify({raw: report.raw, adjusted: report.adjusted, rtt: report.rtt, warnings: report.warnings}, null, 2);
    reportDiv.appendChild(pre);
    (report.figures || []).forEach((f, i) => {
      const div = document.createElement("div");
      div.className = "figure";
      reportDiv.appendChild(div);
      Plotly.newPlot(div, f.data, f.layout);
    });
  }

  function addToFeed(report, origin) {
    const li = document.createElement("li");
    const a = document.createElement("a");
    a.href = "#";
    a.textContent = report.name + " (" + report.local_clock + "/" + report.remote_clock + ", " + origin + ")";
    a.onclick = (e) => {
      e.preventDefault();
      fetch("/api/reports/" + report.id).then(r => r.json()).then(show);
    };
    li.appendChild(a);
    feed.prepend(li);
  }

  document.getElementById("upload").addEventListener("submit", async (e) => {
    e.preventDefault();
    const resp = await fetch("/api/analyze", {method: "POST", body: new FormData(e.target)});
    const body = await resp.json();
    if (Array.isArray(body)) {
      body.forEach(show);
    } else {
      show({name: "upload", error: body.error});
    }
  });

  const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
  ws.onopen = () => ws.send(JSON.stringify({
    type: "client/hello",
    payload: {client_id: crypto.randomUUID(), name: "browser", version: {{.ProtocolVersion}}}
  }));
  ws.onmessage = (e) => {
    const msg = JSON.parse(e.data);
    if (msg.type === "server/report") {
      addToFeed(msg.payload.report, msg.payload.origin);
    }
  };

  fetch("/api/reports").then(r => r.json()).then(list => list.reverse().forEach(r => addToFeed(r, "stored")));
</script>
</body>
</html>
`))

func renderIndex(w io.Writer, name string) error {
	return index.Execute(w, struct {
		Name            string
		Product         string
		Version         string
		Script          string
		ProtocolVersion int
	}{name, version.Product, version.Version, chart.PlotlyScript, protocol.Version})
}
