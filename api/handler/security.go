package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/crmkit/backend/api/transport"
	"github.com/crmkit/backend/domain"
	"github.com/crmkit/backend/pkg/httpcontext"
	securityUC "github.com/crmkit/backend/usecase/security"
)

type SecurityHandler struct {
	baseHandler
	uc *securityUC.UseCase
}

func NewSecurityHandler(uc *securityUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *SecurityHandler {
	return &SecurityHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Current admin access code
// @Tags security
// @Router /api/v1/security/code [get]
func (h *SecurityHandler) Code(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	code, err := h.uc.Current(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, code)
}

// @Summary Verify admin access code
// @Tags security
// @Router /api/v1/security/verify [post]
func (h *SecurityHandler) Verify(ctx *fasthttp.RequestCtx) {
	var req transport.VerifyCodeRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Code == "" {
		h.respondJSON(ctx, http.StatusBadRequest,
			transport.NewError(string(domain.ErrCodeInvalid), "missing code", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Verify(stdCtx, req.Code); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]bool{"valid": true})
}
