package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/crmkit/backend/api/transport"
	"github.com/crmkit/backend/domain"
	"github.com/crmkit/backend/pkg/httpcontext"
	paymentsUC "github.com/crmkit/backend/usecase/payments"
)

type PaymentsHandler struct {
	baseHandler
	uc *paymentsUC.UseCase
}

func NewPaymentsHandler(uc *paymentsUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *PaymentsHandler {
	return &PaymentsHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Transfer between wallets
// @Tags payments
// @Router /api/v1/payments/transfer [post]
func (h *PaymentsHandler) Transfer(ctx *fasthttp.RequestCtx) {
	var req transport.TransferRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest,
			transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	payment, err := h.uc.Transfer(stdCtx, req.FromID, req.ToID, decimal.NewFromFloat(req.Amount), req.Method)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, map[string]interface{}{
		"tx_id":    payment.TxID,
		"sender":   payment.Sender,
		"receiver": payment.Receiver,
		"method":   payment.Method,
		"amount":   payment.Amount.StringFixed(2),
		"fee":      payment.Fee.StringFixed(2),
		"total":    payment.Total.StringFixed(2),
		"status":   payment.Status,
	})
}
