// Package api exposes the template editing engine over HTTP. Each editor
// client opens a session, funnels every edit through the mutation endpoints
// and reads rendered views back; the session's store keeps the tree, the
// dirty flag and the autosaver consistent.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/chartform/chartform/internal/domain/template"
	"github.com/chartform/chartform/internal/export"
	"github.com/chartform/chartform/internal/platform/auth"
	"github.com/chartform/chartform/internal/render"
	"github.com/chartform/chartform/pkg/pagination"
)

// EditorWidth is the abstract canvas width editor frames are laid out in.
const EditorWidth = 800.0

type Handler struct {
	mgr *template.SessionManager

	mu    sync.Mutex
	drops map[uuid.UUID]*render.DropController
}

func NewHandler(mgr *template.SessionManager) *Handler {
	h := &Handler{mgr: mgr, drops: map[uuid.UUID]*render.DropController{}}
	// Drop controllers are keyed by session id; release them however the
	// session ends, including the idle reaper.
	mgr.OnClose(func(sid uuid.UUID) {
		h.mu.Lock()
		delete(h.drops, sid)
		h.mu.Unlock()
	})
	return h
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/sessions", auth.RequireRole("admin", "physician", "nurse"))
	g.POST("", h.OpenSession)
	g.DELETE("/:sid", h.CloseSession)

	g.GET("/:sid/templates", h.ListTemplates)
	g.POST("/:sid/templates", h.CreateTemplate)
	g.GET("/:sid/templates/:id", h.LoadTemplate)
	g.DELETE("/:sid/templates/:id", h.DeleteTemplate)

	g.GET("/:sid/template", h.CurrentTemplate)
	g.PUT("/:sid/template", h.SaveTemplate)
	g.POST("/:sid/template/elements", h.AddElement)
	g.PATCH("/:sid/template/elements/:eid", h.UpdateElement)
	g.DELETE("/:sid/template/elements/:eid", h.RemoveElement)
	g.POST("/:sid/template/elements/move", h.MoveElement)
	g.POST("/:sid/template/elements/hover", h.DragHover)

	g.GET("/:sid/template/editor", h.EditorView)
	g.GET("/:sid/template/preview", h.PreviewView)
	g.GET("/:sid/template/export", h.ExportPDF)
}

// httpError maps engine errors onto responses without leaking driver detail.
func httpError(err error, op string) error {
	var pe *template.PersistenceError
	switch {
	case errors.Is(err, template.ErrNoScope):
		return echo.NewHTTPError(http.StatusForbidden, "must be logged in with an organization account")
	case errors.Is(err, template.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "template not found")
	case errors.As(err, &pe):
		return echo.NewHTTPError(http.StatusBadGateway, fmt.Sprintf("failed to %s template", pe.Op))
	default:
		return echo.NewHTTPError(http.StatusBadGateway, fmt.Sprintf("failed to %s template", op))
	}
}

func (h *Handler) session(c echo.Context) (*template.Session, error) {
	sid, err := uuid.Parse(c.Param("sid"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	s, ok := h.mgr.Get(sid)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return s, nil
}

// -- Session lifecycle --

func (h *Handler) OpenSession(c echo.Context) error {
	s := h.mgr.Open()
	return c.JSON(http.StatusCreated, map[string]any{"session_id": s.ID})
}

func (h *Handler) CloseSession(c echo.Context) error {
	sid, err := uuid.Parse(c.Param("sid"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	if !h.mgr.Close(sid) {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Template lifecycle --

func (h *Handler) ListTemplates(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	items, err := s.Store.FetchTemplates(c.Request().Context())
	if err != nil {
		return httpError(err, "list")
	}
	p := pagination.FromContext(c)
	page := pagination.Window(items, p)
	return c.JSON(http.StatusOK, pagination.NewResponse(page, len(items), p))
}

func (h *Handler) CreateTemplate(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	t, err := s.Store.CreateNewTemplate(c.Request().Context())
	if err != nil {
		return httpError(err, "create")
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) LoadTemplate(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid template id")
	}
	t, err := s.Store.LoadTemplate(c.Request().Context(), id)
	if err != nil {
		return httpError(err, "load")
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteTemplate(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid template id")
	}
	if err := s.Store.DeleteTemplate(c.Request().Context(), id); err != nil {
		return httpError(err, "delete")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CurrentTemplate(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	t := s.Store.Current()
	if t == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no template loaded")
	}
	return c.JSON(http.StatusOK, map[string]any{"template": t, "dirty": s.Store.IsDirty()})
}

func (h *Handler) SaveTemplate(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var meta template.Metadata
	if err := c.Bind(&meta); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if meta.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "template name is required")
	}
	t, err := s.Store.SaveTemplate(c.Request().Context(), meta)
	if err != nil {
		return httpError(err, "save")
	}
	if t == nil {
		return echo.NewHTTPError(http.StatusConflict, "no template loaded to save")
	}
	return c.JSON(http.StatusOK, t)
}

// -- Element mutations --

func (h *Handler) AddElement(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var partial template.NewElement
	if err := c.Bind(&partial); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !partial.Type.Known() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown element type")
	}
	e, ok := s.Store.AddElement(partial)
	if !ok {
		return echo.NewHTTPError(http.StatusConflict, "no template loaded")
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) UpdateElement(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	eid, err := uuid.Parse(c.Param("eid"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid element id")
	}
	var patch template.ElementPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	// Unknown ids no-op by contract; the editor's view may lag the tree.
	s.Store.UpdateElement(eid, patch)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RemoveElement(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	eid, err := uuid.Parse(c.Param("eid"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid element id")
	}
	s.Store.RemoveElement(eid)
	return c.NoContent(http.StatusNoContent)
}

type moveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (h *Handler) MoveElement(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var req moveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s.Store.MoveElement(req.From, req.To)
	// An explicit reorder is how a client finishes a drag; clear the gesture
	// so re-dragging the same element starts fresh.
	h.mu.Lock()
	if drop, ok := h.drops[s.ID]; ok {
		drop.Reset()
	}
	h.mu.Unlock()
	return c.NoContent(http.StatusNoContent)
}

// DragHover feeds one pointer movement through the midpoint-crossing rule
// and commits a move when it fires.
func (h *Handler) DragHover(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var ev render.DragEvent
	if err := c.Bind(&ev); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	view := render.BuildEditorView(s.Store.Current(), EditorWidth)

	h.mu.Lock()
	drop, ok := h.drops[s.ID]
	if !ok {
		drop = render.NewDropController(s.Store, view)
		h.drops[s.ID] = drop
	} else {
		drop.Reframe(view)
	}
	h.mu.Unlock()

	target, committed := drop.Hover(ev)
	return c.JSON(http.StatusOK, map[string]any{"committed": committed, "target": target})
}

// -- Views and export --

func (h *Handler) EditorView(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	t := s.Store.Current()
	if t == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no template loaded")
	}
	return c.JSON(http.StatusOK, render.BuildEditorView(t, EditorWidth))
}

func (h *Handler) PreviewView(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	t := s.Store.Current()
	if t == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no template loaded")
	}
	return c.JSON(http.StatusOK, render.BuildPreviewView(t))
}

func (h *Handler) ExportPDF(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	t := s.Store.Current()
	if t == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no template loaded")
	}
	doc, err := export.PDF(t.Content)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to export template")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", export.Filename))
	return c.Blob(http.StatusOK, "application/pdf", doc)
}
