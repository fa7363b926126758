// Package handler exposes the list engine over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"listmgmt/internal/lists/models"
	dErrors "listmgmt/pkg/domain-errors"
	"listmgmt/pkg/platform/httputil"
	"listmgmt/pkg/requestcontext"
)

// Service is the engine surface the handlers call.
type Service interface {
	CheckValue(ctx context.Context, listType, value, role string) (bool, error)
	AddValue(ctx context.Context, listID int64, value, comment, author, role string) (*models.MutationResult, error)
	EditValue(ctx context.Context, listID int64, oldValue, newValue, comment, author, role string) (*models.MutationResult, error)
	DeleteValue(ctx context.Context, listID int64, value, role string) (*models.MutationResult, error)
	ChangeListType(ctx context.Context, listID int64, newType, role string) (*models.MutationResult, error)
	BulkAdd(ctx context.Context, listID int64, values []string, comment, author, role string) (*models.BulkResult, error)
	BulkDelete(ctx context.Context, listID int64, values []string, role string) (*models.BulkResult, error)
	CreateList(ctx context.Context, name, listType, role string) (*models.List, error)
	DeleteList(ctx context.Context, listID int64, role string) (*models.MutationResult, error)
	GetList(ctx context.Context, listID int64, role string) (*models.List, error)
	ListItems(ctx context.Context, listID int64, page models.Page, role string) (*models.ItemPage, error)
}

// Handler wires list endpoints to the engine.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a list handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts list endpoints on the router. Authentication is applied
// by the caller.
func (h *Handler) Register(r chi.Router) {
	r.Route("/lists", func(r chi.Router) {
		r.Get("/check/{listType}", h.HandleCheck)
		r.Post("/", h.HandleCreateList)
		r.Route("/{listID}", func(r chi.Router) {
			r.Get("/", h.HandleGetList)
			r.Delete("/", h.HandleDeleteList)
			r.Put("/type", h.HandleChangeType)
			r.Get("/items", h.HandleListItems)
			r.Post("/items", h.HandleAdd)
			r.Put("/items", h.HandleEdit)
			r.Post("/items/bulk-add", h.HandleBulkAdd)
			r.Post("/items/bulk-delete", h.HandleBulkDelete)
			r.Delete("/items/{value}", h.HandleDelete)
		})
	})
}

// HandleCheck handles GET /lists/check/{listType}?value=.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listType := chi.URLParam(r, "listType")
	value := r.URL.Query().Get("value")

	exists, err := h.service.CheckValue(ctx, listType, value, requestcontext.Role(ctx))
	if err != nil {
		h.fail(w, r, "check value failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CheckResponse{ListType: listType, Value: value, Exists: exists})
}

// HandleCreateList handles POST /lists.
func (h *Handler) HandleCreateList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateListRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "decode create list request", err)
		return
	}
	list, err := h.service.CreateList(ctx, req.Name, req.Type, requestcontext.Role(ctx))
	if err != nil {
		h.fail(w, r, "create list failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toListResponse(list))
}

// HandleGetList handles GET /lists/{listID}.
func (h *Handler) HandleGetList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listID, ok := h.listID(w, r)
	if !ok {
		return
	}
	list, err := h.service.GetList(ctx, listID, requestcontext.Role(ctx))
	if err != nil {
		h.fail(w, r, "get list failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(list))
}

// HandleDeleteList handles DELETE /lists/{listID}.
func (h *Handler) HandleDeleteList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listID, ok := h.listID(w, r)
	if !ok {
		return
	}
	res, err := h.service.DeleteList(ctx, listID, requestcontext.Role(ctx))
	if err != nil {
		h.fail(w, r, "delete list failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleChangeType handles PUT /lists/{listID}/type.
func (h *Handler) HandleChangeType(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listID, ok := h.listID(w, r)
	if !ok {
		return
	}
	var req ChangeTypeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "decode change type request", err)
		return
	}
	res, err := h.service.ChangeListType(ctx, listID, req.Type, requestcontext.Role(ctx))
	if err != nil {
		h.fail(w, r, "change list type failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleListItems handles GET /lists/{listID}/items?page=&page_size=.
func (h *Handler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listID, ok := h.listID(w, r)
	if !ok {
		return
	}
	page, err := parsePage(r.URL.Query())
	if err != nil {
		h.fail(w, r, "parse page", err)
		return
	}
	items, err := h.service.ListItems(ctx, listID, page, requestcontext.Role(ctx))
	if err != nil {
		h.fail(w, r, "list items failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toItemPageResponse(items))
}

// HandleAdd handles POST /lists/{listID}/items.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listID, ok := h.listID(w, r)
	if !ok {
		return
	}
	var req AddValueRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "decode add request", err)
		return
	}
	res, err := h.service.AddValue(ctx, listID, req.Value, req.Comment, requestcontext.Identity(ctx), requestcontext.Role(ctx))
	if err != nil {
		h.fail(w, r, "add value failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}

// HandleEdit handles PUT /lists/{listID}/items.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listID, ok := h.listID(w, r)
	if !ok {
		return
	}
	var req EditValueRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "decode edit request", err)
		return
	}
	res, err := h.service.EditValue(ctx, listID, req.OldValue, req.NewValue, req.Comment, requestcontext.Identity(ctx), requestcontext.Role(ctx))
	if err != nil {
		h.fail(w, r, "edit value failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleDelete handles DELETE /lists/{listID}/items/{value}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listID, ok := h.listID(w, r)
	if !ok {
		return
	}
	value, err := url.PathUnescape(chi.URLParam(r, "value"))
	if err != nil {
		h.fail(w, r, "decode value", dErrors.New(dErrors.CodeBadRequest, "malformed value"))
		return
	}
	res, err := h.service.DeleteValue(ctx, listID, value, requestcontext.Role(ctx))
	if err != nil {
		h.fail(w, r, "delete value failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleBulkAdd handles POST /lists/{listID}/items/bulk-add. Partial
// success is still a 200.
func (h *Handler) HandleBulkAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listID, ok := h.listID(w, r)
	if !ok {
		return
	}
	var req BulkAddRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "decode bulk add request", err)
		return
	}
	res, err := h.service.BulkAdd(ctx, listID, req.Values, req.Comment, requestcontext.Identity(ctx), requestcontext.Role(ctx))
	if err != nil {
		h.fail(w, r, "bulk add failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleBulkDelete handles POST /lists/{listID}/items/bulk-delete.
func (h *Handler) HandleBulkDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listID, ok := h.listID(w, r)
	if !ok {
		return
	}
	var req BulkDeleteRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "decode bulk delete request", err)
		return
	}
	res, err := h.service.BulkDelete(ctx, listID, req.Values, requestcontext.Role(ctx))
	if err != nil {
		h.fail(w, r, "bulk delete failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) listID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "listID"), 10, 64)
	if err != nil || id <= 0 {
		h.fail(w, r, "parse list id", dErrors.New(dErrors.CodeBadRequest, "list id must be a positive integer"))
		return 0, false
	}
	return id, true
}

// fail logs at a level matching the error class and writes the error body.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"path", r.URL.Path,
		"error", err,
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeUnavailable, dErrors.CodeConflict:
		h.logger.ErrorContext(ctx, msg, attrs...)
	default:
		h.logger.DebugContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}

func parsePage(q url.Values) (models.Page, error) {
	var page models.Page
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, dErrors.New(dErrors.CodeBadRequest, "page must be an integer")
		}
		page.Number = n
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, dErrors.New(dErrors.CodeBadRequest, "page_size must be an integer")
		}
		page.Size = n
	}
	return page, nil
}
