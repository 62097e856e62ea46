package http

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/rhuss/warroom/pkg/api"
	"github.com/rhuss/warroom/pkg/persona"
	"github.com/rhuss/warroom/pkg/transport"
)

// formView is the data rendered by the form template. The API key is
// never echoed back.
type formView struct {
	Nonce    string
	Model    string
	Endpoint string
	Persona  string
	Personas []string
	Prompt   string
	Turns    []api.SpeakerTurn
}

var formTemplate = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>War Room</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
label { display: block; margin-top: .75rem; font-weight: 600; }
input, select, textarea { width: 100%; box-sizing: border-box; padding: .4rem; }
textarea { min-height: 8rem; }
button { margin-top: 1rem; padding: .5rem 1.5rem; }
.turn { border-left: 3px solid #888; margin: .75rem 0; padding: .25rem .75rem; }
.agent { font-weight: 600; }
</style>
</head>
<body>
<h1>War Room</h1>
<form method="post" action="/">
{{- if .Nonce}}
<input type="hidden" name="nonce" value="{{.Nonce}}">
{{- end}}
<label for="api_key">API key or OAuth token</label>
<input type="password" id="api_key" name="api_key" autocomplete="off" required>
<label for="model">Model</label>
<input type="text" id="model" name="model" value="{{.Model}}">
<label for="endpoint">Endpoint override (optional)</label>
<input type="url" id="endpoint" name="endpoint" value="{{.Endpoint}}">
<label for="persona">Board</label>
<select id="persona" name="persona">
{{- range .Personas}}
<option value="{{.}}"{{if eq . $.Persona}} selected{{end}}>{{.}}</option>
{{- end}}
</select>
<label for="prompt">Pitch</label>
<textarea id="prompt" name="prompt" required>{{.Prompt}}</textarea>
<button type="submit">Convene the board</button>
</form>
{{- if .Turns}}
<section id="conversation">
<h2>Conversation</h2>
{{- range .Turns}}
<div class="turn"><span class="emoji">{{.Emoji}}</span> <span class="agent">{{.Agent}}</span><p>{{.Message}}</p></div>
{{- end}}
</section>
{{- end}}
</body>
</html>
`))

// handleForm handles GET /.
func (a *Adapter) handleForm(w http.ResponseWriter, r *http.Request) {
	a.renderForm(w, r, formView{
		Model:   a.config.DefaultModel,
		Persona: a.config.DefaultPersona,
	})
}

// renderForm fills in a fresh nonce and the persona list, then writes the
// page.
func (a *Adapter) renderForm(w http.ResponseWriter, r *http.Request, view formView) {
	if a.config.Nonces != nil {
		nonce, err := a.config.Nonces.Issue()
		if err != nil {
			slog.Error("issuing form nonce", "error", err)
			transport.WriteAPIError(w, api.NewServerError("could not render form"))
			return
		}
		view.Nonce = nonce
	}
	view.Personas = persona.Names()
	if view.Persona == "" {
		view.Persona = a.config.DefaultPersona
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := formTemplate.Execute(w, view); err != nil {
		slog.Error("rendering form", "request_id", transport.RequestIDFromContext(r.Context()), "error", err)
	}
}
