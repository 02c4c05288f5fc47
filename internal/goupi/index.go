package goupi

import (
	"cmp"
	"html/template"
	"slices"
	"strings"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
<ul>
{{- range .Posts}}
<li><a href="{{.Name}}/index.html">{{.Title}}</a> {{.Description}} <time>{{.TimestampDisplay}}</time></li>
{{- end}}
</ul>
</body>
</html>
`))

// SiteAssembler renders the site's post listing.
type SiteAssembler struct {
	title string
}

// NewSiteAssembler creates an assembler whose page is titled title.
func NewSiteAssembler(title string) *SiteAssembler {
	return &SiteAssembler{title: title}
}

// BuildIndex renders one list entry per record, newest first.
func (a *SiteAssembler) BuildIndex(records []PostRecord) (string, error) {
	data := struct {
		Title string
		Posts []PostRecord
	}{
		Title: a.title,
		Posts: SortRecords(records),
	}

	var sb strings.Builder
	if err := indexTemplate.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// SortRecords returns a copy of records ordered by timestamp, most recent
// first. Records with equal timestamps keep their relative order.
func SortRecords(records []PostRecord) []PostRecord {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b PostRecord) int {
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})
	return sorted
}
