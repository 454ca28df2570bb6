package digest

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/notify"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/reports"
)

const digestCategory = "insight-digest"

// Compose renders a report's insights as an email without a recipient.
func Compose(r *reports.Report, loc *time.Location) notify.EmailMessage {
	if loc == nil {
		loc = time.UTC
	}
	period := fmt.Sprintf("%s to %s", r.Window.Start.In(loc).Format("Jan 2"), r.Window.End.In(loc).Format("Jan 2, 2006"))

	var text, markup strings.Builder
	fmt.Fprintf(&text, "Shop insights for %s\n\n", period)
	fmt.Fprintf(&text, "Net sales: $%s (%s vs prior period)\n", r.Revenue.NetSales.StringFixed(2), signedPct(r.Comparison.NetSalesDelta))
	fmt.Fprintf(&text, "Completed appointments: %d\n", r.Appointments.Completed)
	fmt.Fprintf(&text, "Contribution margin: %.1f%%\n\n", r.Margin.ContributionMarginPct)

	fmt.Fprintf(&markup, "<h2>Shop insights for %s</h2>", html.EscapeString(period))
	fmt.Fprintf(&markup, "<p>Net sales: $%s (%s vs prior period)<br>", r.Revenue.NetSales.StringFixed(2), signedPct(r.Comparison.NetSalesDelta))
	fmt.Fprintf(&markup, "Completed appointments: %d<br>", r.Appointments.Completed)
	fmt.Fprintf(&markup, "Contribution margin: %.1f%%</p><ul>", r.Margin.ContributionMarginPct)

	for _, in := range r.Insights {
		fmt.Fprintf(&text, "- [%s] %s\n", in.Type, in.Message)
		fmt.Fprintf(&markup, "<li><strong>%s</strong>", html.EscapeString(in.Message))
		if in.Action != "" {
			fmt.Fprintf(&text, "  Next step: %s\n", in.Action)
			fmt.Fprintf(&markup, "<br>Next step: %s", html.EscapeString(in.Action))
		}
		markup.WriteString("</li>")
	}
	markup.WriteString("</ul>")

	return notify.EmailMessage{
		Subject:  fmt.Sprintf("%d shop insights for %s", len(r.Insights), period),
		Body:     text.String(),
		HTML:     markup.String(),
		Category: digestCategory,
	}
}

func signedPct(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.1f%%", v)
	}
	return fmt.Sprintf("%.1f%%", v)
}
