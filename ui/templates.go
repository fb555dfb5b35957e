package ui

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templatesFS embed.FS

// displayTimeLayout is how timestamps other than the indicator clock are shown
const displayTimeLayout = "Jan 2, 3:04:05 PM"

var templates *template.Template

func init() {
	var err error

	funcMap := template.FuncMap{
		"formatTime": func(t *time.Time) string {
			if t == nil {
				return "Never"
			}
			return t.Local().Format(displayTimeLayout)
		},
	}

	templates, err = template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse templates")
		panic(err)
	}
}

// RenderTemplate renders a template with the given data
func RenderTemplate(w http.ResponseWriter, templateName string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := templates.ExecuteTemplate(w, templateName, data)
	if err != nil {
		log.Error().Err(err).Str("template", templateName).Msg("Failed to render template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
}
