package reporting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/records"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/reports"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/pkg/logging"
	"github.com/go-chi/chi/v5"
)

// ReportBuilder is what the handler needs from Service.
type ReportBuilder interface {
	Report(ctx context.Context, orgID string, filters reports.Filters) (*reports.Report, error)
}

// Handler serves report endpoints under /orgs/{orgID}.
type Handler struct {
	reports ReportBuilder
	logger  *logging.Logger
}

// NewHandler creates a report HTTP handler.
func NewHandler(builder ReportBuilder, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{reports: builder, logger: logger}
}

// Register mounts the report endpoints on a router scoped to /{orgID}.
func (h *Handler) Register(r chi.Router) {
	r.Get("/reports", h.GetReport)
	r.Get("/reports/insights", h.GetInsights)
	r.Get("/reports/at-risk", h.GetAtRisk)
}

// GetReport returns the full report.
// GET /api/v1/orgs/{orgID}/reports
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.build(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, report.OrgID, report)
}

// InsightsResponse is the body of the insights endpoint.
type InsightsResponse struct {
	OrgID    string            `json:"org_id"`
	Window   reports.Window    `json:"window"`
	Insights []reports.Insight `json:"insights"`
}

// GetInsights returns only the insights for the filtered period.
// GET /api/v1/orgs/{orgID}/reports/insights
func (h *Handler) GetInsights(w http.ResponseWriter, r *http.Request) {
	report, ok := h.build(w, r)
	if !ok {
		return
	}
	insights := report.Insights
	if insights == nil {
		insights = []reports.Insight{}
	}
	h.writeJSON(w, report.OrgID, InsightsResponse{OrgID: report.OrgID, Window: report.Window, Insights: insights})
}

// AtRiskResponse is the body of the at-risk endpoint.
type AtRiskResponse struct {
	OrgID         string                   `json:"org_id"`
	ThresholdDays int                      `json:"threshold_days"`
	Customers     []reports.LapsedCustomer `json:"customers"`
}

// GetAtRisk returns lapsed customers, longest absent first.
// GET /api/v1/orgs/{orgID}/reports/at-risk
func (h *Handler) GetAtRisk(w http.ResponseWriter, r *http.Request) {
	report, ok := h.build(w, r)
	if !ok {
		return
	}
	customers := report.AtRisk
	if customers == nil {
		customers = []reports.LapsedCustomer{}
	}
	h.writeJSON(w, report.OrgID, AtRiskResponse{
		OrgID:         report.OrgID,
		ThresholdDays: report.Retention.LapsedThresholdDays,
		Customers:     customers,
	})
}

func (h *Handler) build(w http.ResponseWriter, r *http.Request) (*reports.Report, bool) {
	orgID := chi.URLParam(r, "orgID")
	if strings.TrimSpace(orgID) == "" {
		http.Error(w, `{"error": "org_id required"}`, http.StatusBadRequest)
		return nil, false
	}

	filters, err := ParseFilters(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	report, err := h.reports.Report(r.Context(), orgID, filters)
	if err != nil {
		if errors.Is(err, records.ErrOrgRequired) {
			http.Error(w, `{"error": "org_id required"}`, http.StatusBadRequest)
			return nil, false
		}
		h.logger.Error("failed to build report", "org_id", orgID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return nil, false
	}
	if report.OrgID == "" {
		report.OrgID = orgID
	}
	return report, true
}

// ParseFilters reads the filter bar from query parameters. List parameters are
// comma separated and may repeat.
func ParseFilters(q url.Values) (reports.Filters, error) {
	var f reports.Filters

	if raw := strings.TrimSpace(q.Get("preset")); raw != "" {
		preset, ok := reports.ParsePreset(raw)
		if !ok {
			return f, fmt.Errorf("unknown preset %q", raw)
		}
		f.DateRange.Preset = preset
	} else {
		f.DateRange.Preset = reports.PresetLast30
	}
	f.DateRange.Start = strings.TrimSpace(q.Get("start"))
	f.DateRange.End = strings.TrimSpace(q.Get("end"))
	if f.DateRange.Preset == reports.PresetCustom {
		for _, bound := range [...]struct{ name, v string }{{"start", f.DateRange.Start}, {"end", f.DateRange.End}} {
			name, v := bound.name, bound.v
			if v == "" {
				return f, fmt.Errorf("%s is required for a custom range", name)
			}
			if _, err := time.Parse("2006-01-02", v); err != nil {
				return f, fmt.Errorf("%s must be YYYY-MM-DD", name)
			}
		}
	}

	switch basis := reports.TimeBasis(strings.ToLower(strings.TrimSpace(q.Get("basis")))); basis {
	case "":
	case reports.BasisService, reports.BasisCheckout, reports.BasisTransaction:
		f.TimeBasis = basis
	default:
		return f, fmt.Errorf("unknown basis %q", basis)
	}

	f.StaffIDs = list(q, "staff")
	f.ServiceIDs = list(q, "service")
	for _, v := range list(q, "pet_size") {
		f.PetSizes = append(f.PetSizes, records.PetSize(strings.ToLower(v)))
	}
	for _, v := range list(q, "channel") {
		f.Channels = append(f.Channels, records.NormalizeChannel(v))
	}
	for _, v := range list(q, "client_type") {
		switch ct := reports.ClientType(strings.ToLower(v)); ct {
		case reports.ClientNew, reports.ClientReturning:
			f.ClientTypes = append(f.ClientTypes, ct)
		default:
			return f, fmt.Errorf("unknown client_type %q", v)
		}
	}
	for _, v := range list(q, "status") {
		f.Statuses = append(f.Statuses, records.NormalizeStatus(v))
	}
	for _, v := range list(q, "payment_method") {
		f.PaymentMethods = append(f.PaymentMethods, records.NormalizePaymentMethod(v))
	}
	return f, nil
}

func list(q url.Values, name string) []string {
	var out []string
	for _, raw := range q[name] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func writeError(w http.ResponseWriter, code int, msg string) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	http.Error(w, string(body), code)
}

func (h *Handler) writeJSON(w http.ResponseWriter, orgID string, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "org_id", orgID, "error", err)
	}
}
