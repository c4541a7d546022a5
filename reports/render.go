package reports

import (
	"html/template"
	"strings"

	"github.com/abiru/kikaku-os-sub000/models"
)

// Renderer turns a DailyReport into the published HTML artifact. It is pure:
// no clock, no IO, so re-rendering the same report yields the same bytes.
type Renderer struct {
	tmpl *template.Template
}

var reportTemplate = template.Must(template.New("dailyReport").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Daily Close {{.Date}}</title></head>
<body>
<h1>Daily Close Report for {{.Date}}</h1>
<h2>Orders</h2>
<table border="1" cellpadding="4">
<tr><th>Count</th><th>Net</th><th>Fees</th><th>Tax</th></tr>
<tr><td>{{.Orders.Count}}</td><td>{{.Orders.TotalNet}}</td><td>{{.Orders.TotalFee}}</td><td>{{.Orders.TotalTax}}</td></tr>
</table>
<h2>Payments</h2>
<table border="1" cellpadding="4">
<tr><th>Count</th><th>Amount</th><th>Fees</th></tr>
<tr><td>{{.Payments.Count}}</td><td>{{.Payments.TotalAmount}}</td><td>{{.Payments.TotalFee}}</td></tr>
</table>
<h2>Refunds</h2>
<table border="1" cellpadding="4">
<tr><th>Count</th><th>Amount</th></tr>
<tr><td>{{.Refunds.Count}}</td><td>{{.Refunds.TotalAmount}}</td></tr>
</table>
<h2>Reconciliation</h2>
<p class="level-{{.Anomalies.Level}}">Level: <strong>{{.Anomalies.Level}}</strong>, diff {{.Anomalies.Diff}}</p>
{{if .Anomalies.Message}}<p>{{.Anomalies.Message}}</p>{{end}}
</body>
</html>
`))

func NewRenderer() *Renderer {
	return &Renderer{tmpl: reportTemplate}
}

func (r *Renderer) RenderHTML(report *models.DailyReport) (string, error) {
	var sb strings.Builder
	if err := r.tmpl.Execute(&sb, report); err != nil {
		return "", err
	}
	return sb.String(), nil
}
