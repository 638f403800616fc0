package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/crmkit/backend/api/transport"
	"github.com/crmkit/backend/internal/monitor"
	"github.com/crmkit/backend/pkg/httpcontext"
)

type HealthHandler struct {
	baseHandler
	monitor *monitor.Monitor
}

func NewHealthHandler(mon *monitor.Monitor, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
	}
}

// Check reports the last probe snapshot: substrate reachability and record
// counts per collection. A failing substrate degrades the endpoint to 503 so
// load balancers rotate the instance out.
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	payload := map[string]any{
		"timestamp":   time.Now().UTC(),
		"substrate":   status.Substrate,
		"collections": status.Collections,
		"last_check":  status.LastCheck,
	}

	if !status.Substrate {
		h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEGRADED", "substrate unhealthy", payload))
		return
	}
	h.respondSuccess(ctx, http.StatusOK, payload)
}
