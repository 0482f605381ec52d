package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"
	texttemplate "text/template"

	"go-careerwatch/internal/scraper"
)

type style struct {
	Color    string
	Gradient template.CSS
}

// Brand colours used in the email
var companyStyles = map[string]style{
	"Microsoft": {Color: "#0078d4", Gradient: "linear-gradient(135deg, #0078d4 0%, #00bcf2 100%)"},
	"Amazon":    {Color: "#ff9900", Gradient: "linear-gradient(135deg, #ff9900 0%, #ffbf00 100%)"},
}

var defaultStyle = style{Color: "#333333", Gradient: "linear-gradient(135deg, #555 0%, #888 100%)"}

type group struct {
	Company  string
	Style    style
	Postings []scraper.Posting
}

type view struct {
	Count     int
	Plural    string
	Companies string
	Groups    []group
}

var htmlTmpl = template.Must(template.New("email").Parse(`<html>
<body style="font-family: 'Segoe UI', Arial, sans-serif; background-color: #f5f5f5; margin: 0; padding: 20px;">
  <div style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 8px; overflow: hidden;">
    <div style="background: linear-gradient(135deg, #1a1a2e 0%, #16213e 100%); color: white; padding: 24px; text-align: center;">
      <h1 style="margin: 0; font-size: 24px;">🎯 New Jobs Alert!</h1>
      <p style="margin: 8px 0 0 0; opacity: 0.9;">{{.Count}} new position{{.Plural}} across {{.Companies}}</p>
    </div>
    <div style="padding: 12px 24px 24px 24px;">
{{- range .Groups}}
      <div style="padding: 14px 0 6px 0; font-size: 13px; font-weight: 600; text-transform: uppercase; color: {{.Style.Color}};">{{.Company}} &mdash; {{len .Postings}} new</div>
{{- $style := .Style}}{{$company := .Company}}
{{- range .Postings}}
      <div style="border: 1px solid #e1e1e1; border-left: 4px solid {{$style.Color}}; padding: 16px; margin-bottom: 16px; border-radius: 8px; background-color: #fafafa;">
        <span style="display: inline-block; font-size: 11px; font-weight: 600; padding: 3px 8px; border-radius: 4px; color: #fff; background: {{$style.Gradient}};">{{$company}}</span>
        <h3 style="font-size: 18px; font-weight: 600; margin: 8px 0; color: {{$style.Color}};">{{.Title}}</h3>
        <p style="color: #666; font-size: 14px; margin: 4px 0 12px 0;">📍 {{.Location}}</p>
        <a href="{{.URL}}" style="display: inline-block; color: white; padding: 10px 20px; text-decoration: none; border-radius: 4px; background-color: {{$style.Color}};">View Job &rarr;</a>
      </div>
{{- end}}
{{- end}}
    </div>
    <div style="background-color: #f5f5f5; padding: 16px 24px; text-align: center; font-size: 12px; color: #888; border-top: 1px solid #e1e1e1;">
      <p>This email was sent by careerwatch.</p>
    </div>
  </div>
</body>
</html>
`))

var textTmpl = texttemplate.Must(texttemplate.New("text").Parse(`{{.Count}} new position{{.Plural}} across {{.Companies}}
{{range .Groups}}
{{.Company}} - {{len .Postings}} new
{{range .Postings}}
* {{.Title}}
  {{.Location}}
  {{.URL}}
{{end}}{{end}}`))

// Render builds the single batched message for postings, grouped by company in
// order of first appearance.
func Render(to string, postings []scraper.Posting) (Message, error) {
	if len(postings) == 0 {
		return Message{}, fmt.Errorf("render: no postings")
	}

	v := view{Count: len(postings), Groups: groupByCompany(postings)}
	if v.Count > 1 {
		v.Plural = "s"
	}

	names := make([]string, 0, len(v.Groups))
	for _, g := range v.Groups {
		names = append(names, g.Company)
	}
	sort.Strings(names)
	v.Companies = strings.Join(names, " & ")

	var html, text bytes.Buffer
	if err := htmlTmpl.Execute(&html, v); err != nil {
		return Message{}, fmt.Errorf("render html: %w", err)
	}
	if err := textTmpl.Execute(&text, v); err != nil {
		return Message{}, fmt.Errorf("render text: %w", err)
	}

	return Message{
		To:      to,
		Subject: fmt.Sprintf("🚀 %d New %s Job(s) Found!", v.Count, v.Companies),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

func groupByCompany(postings []scraper.Posting) []group {
	var groups []group
	index := make(map[string]int)
	for _, p := range postings {
		company := p.Company
		if company == "" {
			company = "Other"
		}
		i, ok := index[company]
		if !ok {
			st, known := companyStyles[company]
			if !known {
				st = defaultStyle
			}
			i = len(groups)
			index[company] = i
			groups = append(groups, group{Company: company, Style: st})
		}
		groups[i].Postings = append(groups[i].Postings, p)
	}
	return groups
}
