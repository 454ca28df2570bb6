package settings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/records"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/reports"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/pkg/logging"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// SettingsStore is the persistence the handler needs.
type SettingsStore interface {
	Get(ctx context.Context, orgID string) (reports.Settings, error)
	Set(ctx context.Context, orgID string, cfg reports.Settings) error
}

// Handler provides HTTP endpoints for report settings.
type Handler struct {
	store  SettingsStore
	logger *logging.Logger
}

// NewHandler creates a new settings HTTP handler.
func NewHandler(store SettingsStore, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// GetSettings returns the effective settings for an org.
// GET /api/v1/orgs/{orgID}/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	if orgID == "" {
		http.Error(w, `{"error": "org_id required"}`, http.StatusBadRequest)
		return
	}

	cfg, err := h.store.Get(r.Context(), orgID)
	if err != nil {
		h.logger.Error("failed to get report settings", "org_id", orgID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.logger, orgID, cfg)
}

// ProcessorUpdate changes individual processor fields.
type ProcessorUpdate struct {
	FeeRatePct    *float64         `json:"fee_rate_pct,omitempty"`
	FeeFixed      *decimal.Decimal `json:"fee_fixed,omitempty"`
	FeeBasePolicy *reports.FeeBase `json:"fee_base_policy,omitempty"`
}

// RetentionUpdate changes individual retention fields.
type RetentionUpdate struct {
	RebookWindows       *reports.RebookWindowFlags `json:"rebook_windows,omitempty"`
	WindowMode          *reports.WindowMode        `json:"window_mode,omitempty"`
	LapsedThresholdDays *int                       `json:"lapsed_threshold_days,omitempty"`
}

// UpdateSettingsRequest is a partial update. Absent sections are left alone;
// present sections other than processor and retention replace the stored one.
type UpdateSettingsRequest struct {
	Processor   *ProcessorUpdate           `json:"processor,omitempty"`
	Tips        *reports.TipsConfig        `json:"tips,omitempty"`
	Labor       *reports.LaborConfig       `json:"labor,omitempty"`
	Retention   *RetentionUpdate           `json:"retention,omitempty"`
	Attribution *reports.AttributionConfig `json:"attribution,omitempty"`
	Messaging   *reports.MessagingConfig   `json:"messaging,omitempty"`
	Costs       *reports.CostConfig        `json:"costs,omitempty"`
	Timezone    *string                    `json:"timezone,omitempty"`
	WeekStart   *time.Weekday              `json:"week_start,omitempty"`
}

func badRequest(msg string) error { return errors.New(msg) }

// Apply merges the update into cfg, rejecting values the engine cannot use.
func (req UpdateSettingsRequest) Apply(cfg *reports.Settings) error {
	if p := req.Processor; p != nil {
		if p.FeeRatePct != nil {
			if *p.FeeRatePct < 0 || *p.FeeRatePct > 100 {
				return badRequest("fee_rate_pct must be between 0 and 100")
			}
			cfg.Processor.FeeRatePct = p.FeeRatePct
		}
		if p.FeeFixed != nil {
			if p.FeeFixed.IsNegative() {
				return badRequest("fee_fixed must not be negative")
			}
			cfg.Processor.FeeFixed = p.FeeFixed
		}
		if p.FeeBasePolicy != nil {
			switch *p.FeeBasePolicy {
			case reports.FeeBaseSubtotal, reports.FeeBaseTotal:
				cfg.Processor.FeeBasePolicy = *p.FeeBasePolicy
			default:
				return badRequest("fee_base_policy must be subtotal or total")
			}
		}
	}
	if req.Tips != nil {
		cfg.Tips = *req.Tips
	}
	if l := req.Labor; l != nil {
		if l.DefaultModel != "" {
			l.DefaultModel = records.NormalizeCompensationModel(string(l.DefaultModel))
		}
		if l.DefaultHourlyRate.IsNegative() || l.EmployerBurdenPct < 0 {
			return badRequest("labor values must not be negative")
		}
		if pct := l.DefaultCommissionPct; pct != nil && (*pct < 0 || *pct > 100) {
			return badRequest("default_commission_pct must be between 0 and 100")
		}
		cfg.Labor = *l
	}
	if rt := req.Retention; rt != nil {
		if rt.RebookWindows != nil {
			cfg.Retention.RebookWindows = rt.RebookWindows
		}
		if rt.WindowMode != nil {
			switch *rt.WindowMode {
			case reports.WindowCumulative, reports.WindowDisjoint:
				cfg.Retention.WindowMode = *rt.WindowMode
			default:
				return badRequest("window_mode must be cumulative or disjoint")
			}
		}
		if rt.LapsedThresholdDays != nil {
			if *rt.LapsedThresholdDays <= 0 {
				return badRequest("lapsed_threshold_days must be positive")
			}
			cfg.Retention.LapsedThresholdDays = *rt.LapsedThresholdDays
		}
	}
	if a := req.Attribution; a != nil {
		if a.WindowDays <= 0 || a.ConfirmationWindowHours <= 0 {
			return badRequest("attribution windows must be positive")
		}
		cfg.Attribution = *a
	}
	if m := req.Messaging; m != nil {
		for _, addr := range m.DigestRecipients {
			if !strings.Contains(addr, "@") {
				return badRequest("digest_recipients must be email addresses")
			}
		}
		cfg.Messaging = *m
	}
	if c := req.Costs; c != nil {
		table := make(map[string]decimal.Decimal, len(c.CategoryUnitCost))
		for k, v := range c.CategoryUnitCost {
			if v.IsNegative() {
				return badRequest("category costs must not be negative")
			}
			table[strings.ToLower(strings.TrimSpace(k))] = v
		}
		cfg.Costs = reports.CostConfig{Version: c.Version, CategoryUnitCost: table, DefaultUnitCost: c.DefaultUnitCost}
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil || *req.Timezone == "" {
			return badRequest("timezone must be an IANA zone name")
		}
		cfg.Timezone = *req.Timezone
	}
	if req.WeekStart != nil {
		if *req.WeekStart < time.Sunday || *req.WeekStart > time.Saturday {
			return badRequest("week_start must be 0 (Sunday) through 6 (Saturday)")
		}
		cfg.WeekStart = *req.WeekStart
	}
	return nil
}

// UpdateSettings applies a partial update to an org's settings.
// PUT /api/v1/orgs/{orgID}/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	if orgID == "" {
		http.Error(w, `{"error": "org_id required"}`, http.StatusBadRequest)
		return
	}

	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}

	cfg, err := h.store.Get(r.Context(), orgID)
	if err != nil {
		h.logger.Error("failed to get report settings", "org_id", orgID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	if err := req.Apply(&cfg); err != nil {
		body, _ := json.Marshal(map[string]string{"error": err.Error()})
		http.Error(w, string(body), http.StatusBadRequest)
		return
	}
	cfg = cfg.WithDefaults()

	if err := h.store.Set(r.Context(), orgID, cfg); err != nil {
		h.logger.Error("failed to save report settings", "org_id", orgID, "error", err)
		http.Error(w, `{"error": "failed to save settings"}`, http.StatusInternalServerError)
		return
	}

	h.logger.Info("report settings updated", "org_id", orgID, "cost_table", cfg.Costs.Version)
	writeJSON(w, h.logger, orgID, cfg)
}

func writeJSON(w http.ResponseWriter, logger *logging.Logger, orgID string, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "org_id", orgID, "error", err)
	}
}
