package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/crmkit/backend/api/transport"
	"github.com/crmkit/backend/crm"
	"github.com/crmkit/backend/domain"
	"github.com/crmkit/backend/pkg/httpcontext"
	"github.com/crmkit/backend/store"
)

// CollectionHandler serves generic CRUD over every registered collection.
// The collection name is a path segment; unknown names are 404s.
type CollectionHandler struct {
	baseHandler
	registry *crm.Registry
}

func NewCollectionHandler(registry *crm.Registry, adapter *httpcontext.Adapter, logger *zap.Logger) *CollectionHandler {
	return &CollectionHandler{
		baseHandler: newBaseHandler(adapter, logger),
		registry:    registry,
	}
}

// @Summary List records
// @Tags collections
// @Router /api/v1/collections/{name} [get]
func (h *CollectionHandler) List(ctx *fasthttp.RequestCtx) {
	c, ok := h.collection(ctx)
	if !ok {
		return
	}

	status := string(ctx.QueryArgs().Peek("status"))
	var filter func(domain.Record) bool
	if status != "" {
		filter = func(r domain.Record) bool { return r.Status == status }
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	records, err := c.List(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, records)
}

// @Summary Get record
// @Tags collections
// @Router /api/v1/collections/{name}/{id} [get]
func (h *CollectionHandler) Get(ctx *fasthttp.RequestCtx) {
	c, ok := h.collection(ctx)
	if !ok {
		return
	}
	id, ok := h.recordID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	record, err := c.Get(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, record)
}

// @Summary Create record
// @Tags collections
// @Router /api/v1/collections/{name} [post]
func (h *CollectionHandler) Create(ctx *fasthttp.RequestCtx) {
	c, ok := h.collection(ctx)
	if !ok {
		return
	}
	payload, ok := h.parsePayload(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := c.Create(stdCtx, payload)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update record
// @Tags collections
// @Router /api/v1/collections/{name}/{id} [put]
func (h *CollectionHandler) Update(ctx *fasthttp.RequestCtx) {
	c, ok := h.collection(ctx)
	if !ok {
		return
	}
	id, ok := h.recordID(ctx)
	if !ok {
		return
	}
	payload, ok := h.parsePayload(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := c.Update(stdCtx, id, payload)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete record
// @Tags collections
// @Router /api/v1/collections/{name}/{id} [delete]
func (h *CollectionHandler) Delete(ctx *fasthttp.RequestCtx) {
	c, ok := h.collection(ctx)
	if !ok {
		return
	}
	id, ok := h.recordID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := c.Remove(stdCtx, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

func (h *CollectionHandler) collection(ctx *fasthttp.RequestCtx) (*store.Collection, bool) {
	name, _ := ctx.UserValue("name").(string)
	c, ok := h.registry.Get(name)
	if !ok {
		h.respondJSON(ctx, http.StatusNotFound,
			transport.NewError(string(domain.ErrCodeNotFound), "unknown collection "+name, nil))
		return nil, false
	}
	return c, true
}

func (h *CollectionHandler) recordID(ctx *fasthttp.RequestCtx) (int64, bool) {
	raw, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.respondJSON(ctx, http.StatusBadRequest,
			transport.NewError(string(domain.ErrCodeInvalid), "invalid record id", nil))
		return 0, false
	}
	return id, true
}

func (h *CollectionHandler) parsePayload(ctx *fasthttp.RequestCtx) (domain.Patch, bool) {
	var payload domain.Patch
	if err := json.Unmarshal(ctx.PostBody(), &payload); err != nil || payload == nil {
		h.respondJSON(ctx, http.StatusBadRequest,
			transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return nil, false
	}
	return payload, true
}
