package service

import "html/template"

const pageTemplateText = `
{{define "header"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body class="page page-{{.Page}}">
{{with .Bar}}<header class="title-bar">
<h1>{{.Heading}}</h1>{{if .Subheading}}
<h2>{{.Subheading}}</h2>{{end}}{{range .Meta}}
<p class="meta">{{.}}</p>{{end}}
</header>{{end}}
{{end}}

{{define "footer"}}<footer class="generated">Generated {{.Generated}}</footer>
</body>
</html>{{end}}

{{define "schedule-table"}}<table class="schedule">
<thead><tr><th>Date</th><th>Topics</th><th>Assigned</th><th>Due</th></tr></thead>
<tbody>{{range .Days}}
<tr class="day{{if .Cancelled}} cancelled{{end}}" id="day-{{.Index}}">
<td class="date">{{.Weekday}} {{.Date}}</td>
<td class="topics">{{range .Entries}}
<div class="entry entry-{{.Kind}}"><span class="title">{{.Title}}</span> <span class="minutes">{{.Minutes}} min</span>{{if .Split}} <span class="split">{{.Split}}</span>{{end}}{{if .Notes}}
<div class="notes">{{.Notes}}</div>{{end}}</div>{{end}}
</td>
<td class="assigned">{{range .Assigned}}<div>{{.}}</div>{{end}}</td>
<td class="due">{{range .Due}}<div>{{.}}</div>{{end}}</td>
</tr>{{end}}
</tbody>
</table>{{end}}

{{define "schedule"}}{{template "header" .}}
<main>
{{template "schedule-table" .}}
</main>
{{template "footer" .}}{{end}}

{{define "syllabus"}}{{template "header" .}}
<main>
{{range .Sections}}<section class="syllabus-section">
<h3>{{.Title}}</h3>
{{.Body}}
</section>
{{end}}<section class="assignments">
<h3>Assignments</h3>
<table>
<thead><tr><th>Assignment</th><th>Type</th><th>Points</th><th>Assigned</th><th>Due</th></tr></thead>
<tbody>{{range .Assignments}}
<tr><td>{{.Title}}{{if .Description}}<div class="description">{{.Description}}</div>{{end}}</td><td>{{.Type}}</td><td>{{.Points}}</td><td>{{.Assigned}}</td><td>{{.Due}}</td></tr>{{end}}
</tbody>
</table>
</section>
<section class="schedule">
<h3>Schedule</h3>
{{template "schedule-table" .}}
</section>
</main>
{{template "footer" .}}{{end}}

{{define "availability"}}{{template "header" .}}
<main>
<table class="availability">
<thead><tr><th></th>{{range .Weekdays}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>{{range .Grid.Rows}}
<tr><th>{{.Label}}</th>{{range .Cells}}{{if .Covered}}{{else if .Block}}<td class="busy busy-{{.Block.Kind}}" rowspan="{{.Rowspan}}">{{.Block.Label}}</td>{{else}}<td></td>{{end}}{{end}}</tr>{{end}}
</tbody>
</table>
</main>
{{template "footer" .}}{{end}}
`

var pageTemplates = template.Must(template.New("pages").Parse(pageTemplateText))
