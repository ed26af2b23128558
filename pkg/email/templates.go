package email

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"
)

// TemplateManager holds the parsed itinerary email templates.
type TemplateManager struct {
	itineraryHTML *template.Template
	itineraryText *texttemplate.Template
}

// NewTemplateManager parses all email templates at startup.
func NewTemplateManager() (*TemplateManager, error) {
	htmlTmpl, err := template.New("itinerary").Parse(itineraryHTMLTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse itinerary html template: %w", err)
	}
	textTmpl, err := texttemplate.New("itineraryText").Parse(itineraryTextTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse itinerary text template: %w", err)
	}
	return &TemplateManager{itineraryHTML: htmlTmpl, itineraryText: textTmpl}, nil
}

// ItineraryStop is one line of a shared day.
type ItineraryStop struct {
	Position    int
	Name        string
	Address     string
	PlannedTime string
	Notes       string
}

// ItineraryDay is one day of a shared route.
type ItineraryDay struct {
	Number int
	Date   string
	Stops  []ItineraryStop
}

// ItineraryData holds the dynamic data of a shared route.
type ItineraryData struct {
	RouteName string
	DateRange string
	Notes     string
	Days      []ItineraryDay
}

// RenderItinerary executes both itinerary templates and returns the plain-text and HTML bodies.
func (tm *TemplateManager) RenderItinerary(data ItineraryData) (string, string, error) {
	var text, html bytes.Buffer
	if err := tm.itineraryText.Execute(&text, data); err != nil {
		return "", "", fmt.Errorf("render itinerary text: %w", err)
	}
	if err := tm.itineraryHTML.Execute(&html, data); err != nil {
		return "", "", fmt.Errorf("render itinerary html: %w", err)
	}
	return text.String(), html.String(), nil
}

// --- Template Definitions ---

const itineraryHTMLTemplate = `
<!DOCTYPE html>
<html>
<head>
	<title>{{.RouteName}}</title>
</head>
<body style="font-family: Arial, sans-serif;">
	<h2>{{.RouteName}}</h2>
	{{if .DateRange}}<p>{{.DateRange}}</p>{{end}}
	{{if .Notes}}<p><em>{{.Notes}}</em></p>{{end}}
	{{range .Days}}
	<h3>Day {{.Number}}{{if .Date}} &middot; {{.Date}}{{end}}</h3>
	{{if .Stops}}
	<ol>
		{{range .Stops}}
		<li>
			<strong>{{.Name}}</strong>{{if .PlannedTime}} at {{.PlannedTime}}{{end}}
			{{if .Address}}<br><small>{{.Address}}</small>{{end}}
			{{if .Notes}}<br>{{.Notes}}{{end}}
		</li>
		{{end}}
	</ol>
	{{else}}
	<p>Free day.</p>
	{{end}}
	{{end}}
</body>
</html>
`

const itineraryTextTemplate = `{{.RouteName}}
{{if .DateRange}}{{.DateRange}}
{{end}}{{if .Notes}}{{.Notes}}
{{end}}{{range .Days}}
Day {{.Number}}{{if .Date}} ({{.Date}}){{end}}
{{range .Stops}}  {{.Position}}. {{.Name}}{{if .PlannedTime}} at {{.PlannedTime}}{{end}}{{if .Address}}, {{.Address}}{{end}}
{{else}}  Free day.
{{end}}{{end}}`
