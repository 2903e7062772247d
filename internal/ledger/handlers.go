package ledger

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/paintify/backend-paintify/internal/common"
	"github.com/paintify/backend-paintify/internal/obs"
)

// Handler exposes sales ledger endpoints.
type Handler struct {
	Service *Service
}

// Create handles POST /api/v1/sales.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "ledger service not configured", nil)
		return
	}
	var in SaleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	sale, err := h.Service.RecordSale(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": sale})
}

// List handles GET /api/v1/sales, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "ledger service not configured", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Service.List(r.Context())})
}

// Export handles GET /api/v1/sales/export as a CSV attachment.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "ledger service not configured", nil)
		return
	}
	sales := h.Service.List(r.Context())

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ExportFilename(time.Now())))
	if err := WriteCSV(w, sales); err != nil {
		// The response is already partially written; nothing left to report.
		return
	}
	if obs.LedgerExportsTotal != nil {
		obs.LedgerExportsTotal.WithLabelValues("http").Inc()
	}
}
