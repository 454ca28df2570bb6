package reports

// MetricKey identifies a KPI tile.
type MetricKey int

const (
	MetricGrossSales MetricKey = iota
	MetricNetSales
	MetricAvgTicket
	MetricAppointments
	MetricCompletionRate
	MetricNoShowRate
	MetricContributionMargin
	MetricContributionMarginPct
	MetricProcessingFees
	MetricLaborCost
	MetricCOGS
	MetricRebook7d
	MetricLapsedCustomers

	metricKeyCount
)

// MetricFormat tells the renderer how to display a value.
type MetricFormat string

const (
	FormatCurrency   MetricFormat = "currency"
	FormatPercentage MetricFormat = "percentage"
	FormatNumber     MetricFormat = "number"
)

type metricDefinition struct {
	id        string
	label     string
	format    MetricFormat
	tooltip   string
	drillable bool
}

var metricDefinitions = [...]metricDefinition{
	MetricGrossSales:            {"gross_sales", "Gross Sales", FormatCurrency, "Line item revenue before discounts and refunds.", true},
	MetricNetSales:              {"net_sales", "Net Sales", FormatCurrency, "Gross sales minus discounts and refunds.", true},
	MetricAvgTicket:             {"avg_ticket", "Avg Ticket", FormatCurrency, "Net sales per completed appointment.", false},
	MetricAppointments:          {"appointments", "Appointments", FormatNumber, "Appointments on the service date in range.", true},
	MetricCompletionRate:        {"completion_rate", "Completion Rate", FormatPercentage, "Completed appointments as a share of all appointments.", false},
	MetricNoShowRate:            {"no_show_rate", "No-Show Rate", FormatPercentage, "No-shows as a share of all appointments.", true},
	MetricContributionMargin:    {"contribution_margin", "Contribution Margin", FormatCurrency, "Net sales minus COGS, processing fees and labor.", true},
	MetricContributionMarginPct: {"contribution_margin_pct", "Margin %", FormatPercentage, "Contribution margin as a share of net sales.", false},
	MetricProcessingFees:        {"processing_fees", "Processing Fees", FormatCurrency, "Estimated card processing cost.", false},
	MetricLaborCost:             {"labor_cost", "Labor Cost", FormatCurrency, "Commission, hourly and salary pay including guarantees and burden.", true},
	MetricCOGS:                  {"cogs", "COGS", FormatCurrency, "Estimated supply cost of completed services.", false},
	MetricRebook7d:              {"rebook_7d", "7-Day Rebook", FormatPercentage, "Completed visits followed by a new booking within 7 days.", true},
	MetricLapsedCustomers:       {"lapsed_customers", "Lapsed Customers", FormatNumber, "Customers past the lapsed threshold since their last visit.", true},
}

// Fails to compile if a MetricKey has no definition.
var _ = [1]struct{}{}[metricKeyCount-MetricKey(len(metricDefinitions))]

// String returns the stable identifier of the metric.
func (k MetricKey) String() string {
	if k < 0 || k >= metricKeyCount {
		return "unknown"
	}
	return metricDefinitions[k].id
}

// Label returns the display title of the metric.
func (k MetricKey) Label() string {
	if k < 0 || k >= metricKeyCount {
		return ""
	}
	return metricDefinitions[k].label
}

// KPIMetric is one KPI tile.
type KPIMetric struct {
	Key       string       `json:"key"`
	Label     string       `json:"label"`
	Value     float64      `json:"value"`
	Format    MetricFormat `json:"format"`
	Delta     *float64     `json:"delta,omitempty"`
	Tooltip   string       `json:"tooltip"`
	Drillable bool         `json:"drillable"`
}

// KPIInput is the computed metric set the KPI tiles display.
type KPIInput struct {
	Revenue      RevenueSummary
	Appointments AppointmentSummary
	Margin       MarginSummary
	Retention    RetentionSummary
	Comparison   *Comparison
}

// BuildKPIs returns one tile per MetricKey in key order.
func BuildKPIs(in KPIInput) []KPIMetric {
	values := [metricKeyCount]float64{
		MetricGrossSales:            in.Revenue.GrossSales.InexactFloat64(),
		MetricNetSales:              in.Revenue.NetSales.InexactFloat64(),
		MetricAvgTicket:             in.Revenue.AvgTicket.InexactFloat64(),
		MetricAppointments:          float64(in.Appointments.Total),
		MetricCompletionRate:        in.Appointments.CompletionRate,
		MetricNoShowRate:            in.Appointments.NoShowRate,
		MetricContributionMargin:    in.Margin.ContributionMargin.InexactFloat64(),
		MetricContributionMarginPct: in.Margin.ContributionMarginPct,
		MetricProcessingFees:        in.Revenue.ProcessingFees.InexactFloat64(),
		MetricLaborCost:             in.Margin.LaborCost.InexactFloat64(),
		MetricCOGS:                  in.Margin.COGS.InexactFloat64(),
		MetricLapsedCustomers:       float64(in.Retention.LapsedCount),
	}
	if rate, ok := in.Retention.Rate(Rebook7d); ok {
		values[MetricRebook7d] = rate.Rate
	}

	deltas := map[MetricKey]float64{}
	if in.Comparison != nil {
		deltas[MetricGrossSales] = in.Comparison.GrossSalesDelta
		deltas[MetricNetSales] = in.Comparison.NetSalesDelta
		deltas[MetricAvgTicket] = in.Comparison.AvgTicketDelta
	}

	out := make([]KPIMetric, 0, metricKeyCount)
	for k := MetricKey(0); k < metricKeyCount; k++ {
		def := metricDefinitions[k]
		m := KPIMetric{
			Key:       def.id,
			Label:     def.label,
			Value:     values[k],
			Format:    def.format,
			Tooltip:   def.tooltip,
			Drillable: def.drillable,
		}
		if d, ok := deltas[k]; ok {
			m.Delta = &d
		}
		out = append(out, m)
	}
	return out
}
