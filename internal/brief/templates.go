package brief

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

var briefTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"lower": strings.ToLower,
		"title": func(s string) string {
			s = strings.ReplaceAll(strings.ToLower(s), "_", " ")
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
	}

	contents, err := templateFS.ReadFile("templates/brief.html")
	if err != nil {
		briefTemplate = template.Must(template.New("brief").Funcs(funcMap).Parse(fallbackTemplate))
		return
	}
	briefTemplate = template.Must(template.New("brief").Funcs(funcMap).Parse(string(contents)))
}

// RenderHTML renders the assembled document to a standalone HTML page.
func RenderHTML(doc Document) (string, error) {
	var buf bytes.Buffer
	if err := briefTemplate.Execute(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// fallbackTemplate renders when the embedded file is unavailable.
const fallbackTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.ProjectName}} — Creative Brief</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.5; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
  </style>
</head>
<body>
  <h1>{{.ProjectName}}</h1>
  <p>Generated {{.GeneratedAt.Format "Jan 2, 2006"}}</p>
  <h2>Audiences</h2>
  {{range .Audiences}}<p><strong>{{.Name}}</strong> {{.Description}}</p>{{end}}
  <h2>Pain Points</h2>
  {{range .Pains}}<p><strong>{{.Title}}</strong> {{.Description}}</p>{{end}}
  <h2>Desires</h2>
  {{range .Desires}}<p><strong>{{.Title}}</strong> {{.Description}}</p>{{end}}
  <h2>Messaging Angles</h2>
  {{range .AngleGroups}}<h3>{{.PainDesireTitle}} × {{.AudienceName}}</h3>
  {{range .Angles}}<p><strong>{{.Title}}</strong> {{.Description}}</p>{{end}}{{end}}
  <h2>Hooks</h2>
  {{range .HookGroups}}<h3>{{.AngleTitle}}</h3>
  {{range .Hooks}}<p>{{.Content}}</p>{{end}}{{end}}
  <h2>Format Concepts</h2>
  {{range .Concepts}}<p><strong>{{.HookContent}}</strong> {{.Notes}}</p>{{end}}
</body>
</html>`
