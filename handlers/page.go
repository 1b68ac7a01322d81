package handlers

import (
	"html/template"
	"io"
	"time"
)

const (
	formMessageSuccessColor = "green"
	formMessageErrorColor   = "red"
)

// PageData feeds the page template. TableHTML is already escaped by the presenter.
type PageData struct {
	TableHTML   template.HTML
	LoadError   string
	LastUpdated string

	FormMessage      string
	FormMessageColor string
	FormName         string
	FormPrice        string
}

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width, initial-scale=1" />
<title>Medicines</title>
<style>
body{font-family:ui-sans-serif,system-ui,-apple-system,Segoe UI,Roboto,Helvetica,Arial;margin:24px;color:#1d2327}
h1{font-size:24px;margin:0 0 12px 0}
table.medicines{border-collapse:collapse;min-width:360px;margin-top:12px}
table.medicines th,table.medicines td{border:1px solid #ccd0d4;padding:6px 10px;text-align:left}
.error{color:#b32d2e;font-weight:600}
.updated{color:#646970;font-size:12px}
form{margin-top:8px}
label{display:block;margin-top:8px}
</style>
</head>
<body>
<h1>Medicines</h1>

<form method="post" action="/refresh">
<button id="refresh-btn" type="submit">Refresh</button>
</form>

{{if .LoadError}}<p id="error" class="error">{{.LoadError}}</p>{{end}}

<div id="medicines-container">{{.TableHTML}}</div>
{{if .LastUpdated}}<p class="updated">Last updated {{.LastUpdated}}</p>{{end}}

<h2>Add a medicine</h2>
<form id="add-medicine-form" method="post" action="/create">
<label for="med-name">Name</label>
<input id="med-name" name="name" type="text" value="{{.FormName}}" />
<label for="med-price">Price</label>
<input id="med-price" name="price" type="text" inputmode="decimal" value="{{.FormPrice}}" />
<button type="submit">Add</button>
</form>
<p id="form-message"{{if .FormMessageColor}} style="color: {{.FormMessageColor}};"{{end}}>{{.FormMessage}}</p>
</body>
</html>
`))

func renderPage(w io.Writer, data PageData) error {
	return pageTemplate.Execute(w, data)
}

func formatLastUpdated(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
