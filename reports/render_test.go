package reports

import (
	"strings"
	"testing"

	"github.com/abiru/kikaku-os-sub000/models"
	"github.com/shopspring/decimal"
)

func sampleReport() *models.DailyReport {
	r := &models.DailyReport{
		Date: "2026-08-30",
		Orders: models.ReportOrderTotals{
			Count:    12,
			TotalNet: decimal.NewFromInt(24250),
			TotalTax: decimal.NewFromInt(750),
		},
		Payments: models.ReportPaymentTotals{
			Count:       12,
			TotalAmount: decimal.NewFromInt(25000),
			TotalFee:    decimal.NewFromInt(750),
		},
		Refunds: models.ReportRefundTotals{
			Count:       1,
			TotalAmount: decimal.NewFromInt(500),
		},
	}
	r.Anomalies = Reconcile(r)
	return r
}

func TestRenderHTMLDeterministic(t *testing.T) {
	renderer := NewRenderer()
	report := sampleReport()

	first, err := renderer.RenderHTML(report)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	second, err := renderer.RenderHTML(report)
	if err != nil {
		t.Fatalf("render again: %v", err)
	}
	if first != second {
		t.Fatal("rendering the same report twice produced different output")
	}

	for _, want := range []string{"2026-08-30", "25000", "24250", "ok"} {
		if !strings.Contains(first, want) {
			t.Errorf("rendered report missing %q", want)
		}
	}
}

func TestRenderHTMLEscapesMessage(t *testing.T) {
	report := sampleReport()
	report.Anomalies = models.ReportAnomalyBlock{
		Level:   models.AnomalyLevelWarning,
		Message: `<script>alert("x")</script>`,
	}

	out, err := NewRenderer().RenderHTML(report)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, "<script>") {
		t.Fatal("anomaly message was not escaped")
	}
}

func TestReconcileLevels(t *testing.T) {
	cases := []struct {
		name     string
		payments int64
		net      int64
		tax      int64
		want     models.AnomalyLevel
	}{
		{"exact match", 25000, 24250, 750, models.AnomalyLevelOk},
		{"within rounding band", 25001, 24250, 750, models.AnomalyLevelOk},
		{"small divergence", 25100, 24250, 750, models.AnomalyLevelWarning},
		{"large divergence", 27000, 24250, 750, models.AnomalyLevelCritical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report := &models.DailyReport{
				Date: "2026-08-30",
				Orders: models.ReportOrderTotals{
					TotalNet: decimal.NewFromInt(tc.net),
					TotalTax: decimal.NewFromInt(tc.tax),
				},
				Payments: models.ReportPaymentTotals{
					TotalAmount: decimal.NewFromInt(tc.payments),
				},
			}
			block := Reconcile(report)
			if block.Level != tc.want {
				t.Errorf("level = %s, want %s (diff %s)", block.Level, tc.want, block.Diff)
			}
			if tc.want != models.AnomalyLevelOk && block.Message == "" {
				t.Error("non-ok verdict must carry a message")
			}
		})
	}
}
