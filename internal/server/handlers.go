package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/justgrid/pkg/errors"
	"github.com/matzehuels/justgrid/pkg/layout"
	"github.com/matzehuels/justgrid/pkg/loader"
	"github.com/matzehuels/justgrid/pkg/render"
	"github.com/matzehuels/justgrid/pkg/snapshot"
)

// maxBodyBytes limits request bodies.
const maxBodyBytes = 1 << 20

// CreateRequest is the body of POST /galleries.
type CreateRequest struct {
	// ID is optional; a random id is assigned when empty.
	ID          string   `json:"id,omitempty"`
	Collections []string `json:"collections,omitempty"`
	// URLs builds a single-page gallery from direct image URLs instead of
	// remote collections.
	URLs      []string         `json:"urls,omitempty"`
	SortOrder loader.SortOrder `json:"sort,omitempty"`
	MaxItems  *int             `json:"max_items,omitempty"`
	// Restore seeds the gallery from its saved snapshot, if one exists.
	Restore bool `json:"restore,omitempty"`
}

// CreateResponse is returned by POST /galleries.
type CreateResponse struct {
	ID       string        `json:"id"`
	Restored bool          `json:"restored,omitempty"`
	Status   loader.Status `json:"status"`
}

// LayoutResponse is returned by GET /galleries/{id}/layout.
type LayoutResponse struct {
	Cards       []render.Card  `json:"cards"`
	TotalHeight float64        `json:"total_height"`
	Trigger     string         `json:"trigger,omitempty"`
	Banner      *render.Banner `json:"banner,omitempty"`
	Status      loader.Status  `json:"status"`
}

// NearRequest is the body of POST /galleries/{id}/near.
type NearRequest struct {
	Target   string  `json:"target"`
	Distance float64 `json:"distance"`
}

// NearResponse reports whether the proximity signal loaded more pages.
type NearResponse struct {
	Fired  bool          `json:"fired"`
	Status loader.Status `json:"status"`
}

type errorResponse struct {
	Error   errors.Code `json:"error"`
	Message string      `json:"message"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"galleries": s.registry.IDs()})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ID == "" {
		if req.Restore {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "restore requires a gallery id"))
			return
		}
		req.ID = uuid.NewString()
	}
	if err := errors.ValidateGalleryID(req.ID); err != nil {
		writeError(w, err)
		return
	}
	if limit := s.cfg.Server.MaxGalleries; limit > 0 && s.registry.Len() >= limit {
		writeError(w, errors.New(errors.ErrCodeRateLimited, "too many galleries (max %d)", limit))
		return
	}

	opts := s.cfg.LoaderOptions(req.Collections)
	opts.ID = req.ID
	opts.Provider = s.provider
	opts.Clock = s.clock
	opts.Logger = s.logger
	if req.SortOrder != "" {
		opts.SortOrder = req.SortOrder
	}
	if req.MaxItems != nil {
		opts.MaxItems = *req.MaxItems
	}

	info := galleryInfo{sort: opts.SortOrder}
	switch {
	case len(req.URLs) > 0:
		if len(req.Collections) > 0 {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "collections and urls are mutually exclusive"))
			return
		}
		info.urlCollection = "urls:" + req.ID
		if err := s.urls.Add(info.urlCollection, req.URLs); err != nil {
			writeError(w, err)
			return
		}
		opts.Collections = []string{info.urlCollection}
		opts.Provider = s.urls
	case s.provider == nil:
		writeError(w, errors.New(errors.ErrCodeUnsupported, "no collection provider is configured; pass urls instead"))
		return
	}

	ctrl, err := s.registry.Attach(opts)
	if err != nil {
		if info.urlCollection != "" {
			s.urls.Remove(info.urlCollection)
		}
		writeError(w, err)
		return
	}
	s.mu.Lock()
	s.galleries[req.ID] = info
	s.mu.Unlock()

	resp := CreateResponse{ID: req.ID}
	if req.Restore {
		restored, err := s.restore(r, ctrl)
		if err != nil {
			s.detach(req.ID)
			writeError(w, err)
			return
		}
		resp.Restored = restored
	}
	if !resp.Restored {
		ctrl.LoadNextPages(r.Context())
	}
	resp.Status = ctrl.Status()
	s.logger.Info("gallery created", "gallery", req.ID, "collections", len(opts.Collections), "restored", resp.Restored)
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) restore(r *http.Request, ctrl *loader.Controller) (bool, error) {
	if s.snapshots == nil {
		return false, errors.New(errors.ErrCodeUnsupported, "snapshots are disabled")
	}
	snap, err := s.snapshots.Get(r.Context(), ctrl.ID())
	if err != nil || snap == nil {
		return false, err
	}
	if err := snap.Apply(ctrl); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.controller(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ctrl.Status())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.detach(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) detach(id string) error {
	s.mu.Lock()
	info := s.galleries[id]
	delete(s.galleries, id)
	s.mu.Unlock()
	if info.urlCollection != "" {
		s.urls.Remove(info.urlCollection)
	}
	return s.registry.Detach(id)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.controller(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	width, err := parseFloat(q.Get("width"), "width", true)
	if err != nil {
		writeError(w, err)
		return
	}
	vh, err := parseFloat(q.Get("viewport_height"), "viewport_height", false)
	if err != nil {
		writeError(w, err)
		return
	}

	cfg := s.cfg.Layout
	rows := ctrl.Layout(width, cfg, layout.Viewport{Width: width, Height: vh})
	ind := ctrl.Indicator()

	switch format := q.Get("format"); format {
	case "svg":
		w.Header().Set("Content-Type", "image/svg+xml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(render.RenderSVG(rows,
			render.WithWidth(width),
			render.WithBanner(ind)))
	case "", "json":
		resp := LayoutResponse{
			Cards:       render.Cards(rows),
			TotalHeight: layout.TotalHeight(layout.Pixels(rows)),
			Trigger:     ctrl.TriggerTarget(),
			Status:      ctrl.Status(),
		}
		if b, ok := render.BannerFor(ind); ok {
			resp.Banner = &b
		}
		writeJSON(w, http.StatusOK, resp)
	default:
		writeError(w, errors.New(errors.ErrCodeUnsupported, "unsupported format: %q (must be json or svg)", format))
	}
}

func (s *Server) handleNear(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.controller(w, r)
	if !ok {
		return
	}
	var req NearRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Target == "" {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "target is required"))
		return
	}
	fired := ctrl.Observe(req.Target, req.Distance)
	writeJSON(w, http.StatusOK, NearResponse{Fired: fired, Status: ctrl.Status()})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.controller(w, r)
	if !ok {
		return
	}
	ctrl.LoadNextPages(r.Context())
	writeJSON(w, http.StatusOK, ctrl.Status())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.controller(w, r)
	if !ok {
		return
	}
	if err := ctrl.Reset(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ctrl.Status())
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.controller(w, r)
	if !ok {
		return
	}
	if s.snapshots == nil {
		writeError(w, errors.New(errors.ErrCodeUnsupported, "snapshots are disabled"))
		return
	}
	s.mu.Lock()
	order := s.galleries[ctrl.ID()].sort
	s.mu.Unlock()
	snap := snapshot.Take(ctrl, order)
	if err := s.snapshots.Save(r.Context(), snap); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": snap.GalleryID, "items": len(snap.Items), "saved_at": snap.SavedAt})
}

func (s *Server) controller(w http.ResponseWriter, r *http.Request) (*loader.Controller, bool) {
	id := chi.URLParam(r, "id")
	ctrl, ok := s.registry.Get(id)
	if !ok {
		writeError(w, errors.New(errors.ErrCodeGalleryNotFound, "gallery %s not found", id))
		return nil, false
	}
	return ctrl, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func parseFloat(v, name string, required bool) (float64, error) {
	if v == "" {
		if required {
			return 0, errors.New(errors.ErrCodeInvalidInput, "%s is required", name)
		}
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid %s: %q", name, v)
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if stderrors.Is(err, loader.ErrDestroyed) {
		code = errors.ErrCodeGalleryNotFound
	}
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, httpStatus(code), errorResponse{Error: code, Message: errors.UserMessage(err)})
}

func httpStatus(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidURL:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeCollectionNotFound, errors.ErrCodeGalleryNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrCodeForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
