package viz

import (
	"bytes"
	"fmt"
	"html/template"
)

// compiledTemplate is parsed at init time to fail fast on template errors.
var compiledTemplate *template.Template

func init() {
	compiledTemplate = template.Must(template.New("viz").Parse(htmlTemplate))
}

// HTMLOptions configures HTML generation.
type HTMLOptions struct {
	Layout string // "force", "circle", "grid" or "tree"
	Title  string
}

// DefaultOptions returns default HTML generation options.
func DefaultOptions() HTMLOptions {
	return HTMLOptions{
		Layout: "force",
		Title:  "Learning Graph",
	}
}

// ValidLayouts lists the supported layout algorithm names.
var ValidLayouts = []string{"force", "circle", "grid", "tree"}

// GenerateHTML generates a self-contained HTML file for the graph visualization.
func GenerateHTML(graph *GraphData, opts HTMLOptions) (string, error) {
	if graph == nil {
		return "", fmt.Errorf("graph cannot be nil")
	}

	if err := validateLayout(opts.Layout); err != nil {
		return "", err
	}
	if opts.Title == "" {
		opts.Title = DefaultOptions().Title
	}

	data := templateData{
		Title:  opts.Title,
		Layout: layoutToCytoscape(opts.Layout),
		Empty:  graph.IsEmpty(),
		Path:   graph.PathNodes(),
	}
	if !data.Empty {
		graphJSON, err := graph.ToCytoscapeJSON()
		if err != nil {
			return "", err
		}
		data.GraphJSON = template.JS(graphJSON)
	}

	var buf bytes.Buffer
	if err := compiledTemplate.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// validateLayout checks if the layout option is valid.
func validateLayout(layout string) error {
	switch layout {
	case "", "force", "circle", "grid", "tree":
		return nil
	default:
		return fmt.Errorf("invalid layout %q: must be force, circle, grid, or tree", layout)
	}
}

// templateData holds data for the HTML template.
type templateData struct {
	Title     string
	GraphJSON template.JS
	Layout    string
	Empty     bool
	Path      []Node
}

// layoutToCytoscape converts user-friendly layout names to Cytoscape.js layout algorithm names.
func layoutToCytoscape(layout string) string {
	switch layout {
	case "circle":
		return "circle"
	case "grid":
		return "grid"
	case "tree":
		return "breadthfirst"
	default:
		return "cose"
	}
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
{{- if not .Empty}}
<script src="https://unpkg.com/cytoscape@3/dist/cytoscape.min.js"></script>
{{- end}}
<style>
  html, body { margin: 0; height: 100%; font: 13px system-ui, sans-serif; color: #222; }
  main { display: flex; height: 100%; }
  #cy { flex: 1; }
  aside { width: 260px; padding: 12px 16px; border-left: 1px solid #ddd; overflow-y: auto; background: #fafafa; }
  aside h1 { font-size: 15px; margin: 0 0 12px; }
  aside h2 { font-size: 11px; text-transform: uppercase; color: #777; margin: 16px 0 6px; }
  ol { margin: 0; padding-left: 20px; }
  .key span { display: inline-block; width: 10px; height: 10px; margin-right: 6px; }
  .empty { display: flex; height: 100%; align-items: center; justify-content: center; color: #666; }
  code { background: #eee; padding: 1px 5px; }
</style>
</head>
<body>
{{- if .Empty}}
<div class="empty"><div>
  <h2>No graph data</h2>
  <p>Build a graph first with <code>lp build URL...</code></p>
</div></div>
{{- else}}
<main>
  <div id="cy"></div>
  <aside>
    <h1>{{.Title}}</h1>
    <div class="key"><span style="background:#E8923A"></span>concept</div>
    <div class="key"><span style="background:#4A90D9"></span>learning resource</div>
    <div class="key"><span style="background:#D9534F"></span>path</div>
    {{- if .Path}}
    <h2>Path</h2>
    <ol>{{range .Path}}<li>{{.Label}}</li>{{end}}</ol>
    {{- end}}
    <h2>Selected</h2>
    <div id="selected">Click a node or edge.</div>
  </aside>
</main>
<script>
  const elements = {{.GraphJSON}};
  const layout = "{{.Layout}}";
  const label = { 'font-size': '10px', 'text-valign': 'bottom', 'text-margin-y': 4, 'label': 'data(label)' };
  const arrow = { 'curve-style': 'bezier', 'target-arrow-shape': 'triangle' };

  const cy = cytoscape({
    container: document.getElementById('cy'),
    elements: elements,
    layout: { name: layout, animate: false, directed: true },
    style: [
      { selector: 'node[type="concept"]', style: Object.assign({ 'shape': 'diamond', 'background-color': '#E8923A',
          'width': 'mapData(connectionCount, 0, 10, 20, 48)', 'height': 'mapData(connectionCount, 0, 10, 20, 48)' }, label) },
      { selector: 'node[type="resource"]', style: Object.assign({ 'background-color': '#4A90D9', 'width': 28, 'height': 28 }, label) },
      { selector: 'edge[kind="EXPLAINS"]', style: Object.assign({ 'line-color': '#9DC99D', 'target-arrow-color': '#9DC99D', 'width': 1 }, arrow) },
      { selector: 'edge[kind="HAS_PREREQUISITE"]', style: Object.assign({ 'line-color': '#A98BC4', 'target-arrow-color': '#A98BC4',
          'width': 'mapData(weight, 0.7, 1, 1, 4)' }, arrow) },
      { selector: '.path', style: { 'border-width': 3, 'border-color': '#D9534F', 'line-color': '#D9534F',
          'target-arrow-color': '#D9534F', 'z-index': 10 } },
      { selector: 'edge.path', style: { 'width': 4 } }
    ]
  });

  const selected = document.getElementById('selected');
  function show(lines) {
    selected.textContent = '';
    lines.filter(Boolean).forEach(function(text) {
      const div = document.createElement('div');
      div.textContent = text;
      selected.appendChild(div);
    });
  }

  cy.on('tap', 'node', function(evt) {
    const d = evt.target.data();
    show([
      d.type + ': ' + d.label,
      d.sourceUri,
      d.explains && d.explains.length ? 'explains ' + d.explains.join(', ') : '',
      d.type === 'concept' ? d.connectionCount + ' incoming' : '',
      d.pathIndex >= 0 ? 'path step ' + (d.pathIndex + 1) : ''
    ]);
  });
  cy.on('tap', 'edge', function(evt) {
    const d = evt.target.data();
    show([d.kind, d.source + ' → ' + d.target, d.kind === 'HAS_PREREQUISITE' ? 'relatedness ' + d.weight.toFixed(3) : '']);
  });
</script>
{{- end}}
</body>
</html>`
