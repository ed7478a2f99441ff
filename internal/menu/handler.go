package menu

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/HerbHall/storefront/internal/params"
	"github.com/HerbHall/storefront/internal/plugin"
	"github.com/HerbHall/storefront/internal/server"
)

const maxBodyBytes = 64 << 10

// setParamRequest is the JSON body for POST /locations/{slug}/params.
type setParamRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Query string `json:"query"`
}

// paramResponse is the canonical state after a parameter change.
type paramResponse struct {
	Query string `json:"query"`
	Path  string `json:"path"`
}

// openSessionRequest is the JSON body for POST /sessions.
type openSessionRequest struct {
	Slug  string `json:"slug"`
	Query string `json:"query"`
}

// sessionParamRequest is the JSON body for POST /sessions/{id}/params.
type sessionParamRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// searchRequest is the JSON body for POST /sessions/{id}/search.
type searchRequest struct {
	Text   string `json:"text"`
	Submit bool   `json:"submit"`
}

// pageRequest is the JSON body for POST /sessions/{id}/page.
type pageRequest struct {
	Page int `json:"page"`
}

// sessionResponse wraps a session snapshot.
type sessionResponse struct {
	ID            string `json:"id"`
	PendingSearch string `json:"pending_search,omitempty"`
	View          View   `json:"view"`
}

// Routes implements plugin.Plugin.
func (p *Plugin) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/locations/{slug}/products", Handler: p.handleProducts},
		{Method: "POST", Path: "/locations/{slug}/params", Handler: p.handleSetParam},
		{Method: "POST", Path: "/sessions", Handler: p.handleOpenSession},
		{Method: "GET", Path: "/sessions/{id}", Handler: p.handleGetSession},
		{Method: "DELETE", Path: "/sessions/{id}", Handler: p.handleCloseSession},
		{Method: "POST", Path: "/sessions/{id}/params", Handler: p.handleSessionParam},
		{Method: "POST", Path: "/sessions/{id}/page", Handler: p.handleSessionPage},
		{Method: "POST", Path: "/sessions/{id}/search", Handler: p.handleSessionSearch},
		{Method: "POST", Path: "/sessions/{id}/retry", Handler: p.handleSessionRetry},
		{Method: "GET", Path: "/sessions/{id}/stream", Handler: p.handleSessionStream},
	}
}

// handleProducts derives the menu for a location from the query string.
//
//	@Summary		Get location menu
//	@Description	Resolves the location slug, gates the product search on its assignments, applies dietary filters and paginates.
//	@Tags			menu
//	@Produce		json
//	@Param			slug path string true "Location slug"
//	@Param			category query string false "Category"
//	@Param			dietary_tags query string false "Comma-separated dietary tags (all required)"
//	@Param			search query string false "Free-text search"
//	@Param			limit query int false "Page size" default(12)
//	@Param			offset query int false "Offset"
//	@Success		200 {object} View
//	@Failure		404 {object} server.Problem
//	@Failure		502 {object} server.Problem
//	@Router			/menu/locations/{slug}/products [get]
func (p *Plugin) handleProducts(w http.ResponseWriter, r *http.Request) {
	state := params.Decode(r.URL.Query())
	v := p.engine.Load(r.Context(), r.PathValue("slug"), state)
	p.writeView(w, r, v)
}

// handleSetParam applies one parameter change to a query string and returns
// the canonical result.
//
//	@Summary		Change a menu parameter
//	@Description	Applies one key change to the given query. Filter and sort changes reset the page. Inverted price ranges are rejected.
//	@Tags			menu
//	@Accept			json
//	@Produce		json
//	@Param			slug path string true "Location slug"
//	@Success		200 {object} paramResponse
//	@Failure		400 {object} server.Problem
//	@Failure		422 {object} server.Problem
//	@Router			/menu/locations/{slug}/params [post]
func (p *Plugin) handleSetParam(w http.ResponseWriter, r *http.Request) {
	var req setParamRequest
	if !decodeBody(w, r, &req) {
		return
	}
	values, err := url.ParseQuery(strings.TrimPrefix(req.Query, "?"))
	if err != nil {
		server.BadRequest(w, "query: "+err.Error(), r.URL.Path)
		return
	}

	next, err := p.engine.Set(params.Decode(values), req.Key, req.Value)
	if err != nil {
		writeSetError(w, r, err)
		return
	}

	q := next.QueryString()
	path := "/api/v1/menu/locations/" + url.PathEscape(r.PathValue("slug")) + "/products"
	if q != "" {
		path += "?" + q
	}
	writeJSON(w, http.StatusOK, paramResponse{Query: q, Path: path})
}

// handleOpenSession opens a menu session and starts its first load.
//
//	@Summary		Open menu session
//	@Tags			menu
//	@Accept			json
//	@Produce		json
//	@Success		201 {object} sessionResponse
//	@Failure		400 {object} server.Problem
//	@Failure		429 {object} server.Problem
//	@Router			/menu/sessions [post]
func (p *Plugin) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Slug) == "" {
		server.BadRequest(w, "slug is required", r.URL.Path)
		return
	}
	values, err := url.ParseQuery(strings.TrimPrefix(req.Query, "?"))
	if err != nil {
		server.BadRequest(w, "query: "+err.Error(), r.URL.Path)
		return
	}

	sess, err := p.sessions.Open(req.Slug, params.Decode(values), p.engine, p.sessionOptions())
	if errors.Is(err, ErrTooManySessions) {
		server.TooManyRequests(w, err.Error(), r.URL.Path)
		return
	}
	if err != nil {
		server.InternalError(w, err.Error(), r.URL.Path)
		return
	}
	w.Header().Set("Location", "/api/v1/menu/sessions/"+sess.ID())
	writeJSON(w, http.StatusCreated, sessionResponse{ID: sess.ID(), View: sess.Snapshot()})
}

// handleGetSession returns the session's current view.
//
//	@Summary		Get menu session
//	@Tags			menu
//	@Produce		json
//	@Param			id path string true "Session ID"
//	@Success		200 {object} sessionResponse
//	@Failure		404 {object} server.Problem
//	@Router			/menu/sessions/{id} [get]
func (p *Plugin) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := p.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snapshotOf(sess))
}

// handleCloseSession closes a session.
//
//	@Summary		Close menu session
//	@Tags			menu
//	@Param			id path string true "Session ID"
//	@Success		204
//	@Failure		404 {object} server.Problem
//	@Router			/menu/sessions/{id} [delete]
func (p *Plugin) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if !p.sessions.Close(r.PathValue("id")) {
		server.NotFound(w, "session not found", r.URL.Path)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSessionParam applies one parameter change to a session.
//
//	@Summary		Change a session parameter
//	@Tags			menu
//	@Accept			json
//	@Produce		json
//	@Param			id path string true "Session ID"
//	@Success		200 {object} sessionResponse
//	@Failure		404 {object} server.Problem
//	@Failure		422 {object} server.Problem
//	@Router			/menu/sessions/{id}/params [post]
func (p *Plugin) handleSessionParam(w http.ResponseWriter, r *http.Request) {
	sess, ok := p.session(w, r)
	if !ok {
		return
	}
	var req sessionParamRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := sess.Set(req.Key, req.Value); err != nil {
		p.writeSessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotOf(sess))
}

// handleSessionPage moves a session to another page.
//
//	@Summary		Change session page
//	@Tags			menu
//	@Accept			json
//	@Produce		json
//	@Param			id path string true "Session ID"
//	@Success		200 {object} sessionResponse
//	@Failure		404 {object} server.Problem
//	@Failure		422 {object} server.Problem
//	@Router			/menu/sessions/{id}/page [post]
func (p *Plugin) handleSessionPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := p.session(w, r)
	if !ok {
		return
	}
	var req pageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := sess.Page(req.Page); err != nil {
		p.writeSessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotOf(sess))
}

// handleSessionSearch feeds search keystrokes to the session. The text is
// committed once typing pauses, or at once when submit is set.
//
//	@Summary		Type session search text
//	@Tags			menu
//	@Accept			json
//	@Produce		json
//	@Param			id path string true "Session ID"
//	@Success		202 {object} sessionResponse
//	@Failure		404 {object} server.Problem
//	@Router			/menu/sessions/{id}/search [post]
func (p *Plugin) handleSessionSearch(w http.ResponseWriter, r *http.Request) {
	sess, ok := p.session(w, r)
	if !ok {
		return
	}
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sess.Type(req.Text)
	if req.Submit {
		sess.SubmitSearch()
	}
	writeJSON(w, http.StatusAccepted, snapshotOf(sess))
}

// handleSessionRetry reruns the session's last load.
//
//	@Summary		Retry session load
//	@Tags			menu
//	@Produce		json
//	@Param			id path string true "Session ID"
//	@Success		202 {object} sessionResponse
//	@Failure		404 {object} server.Problem
//	@Router			/menu/sessions/{id}/retry [post]
func (p *Plugin) handleSessionRetry(w http.ResponseWriter, r *http.Request) {
	sess, ok := p.session(w, r)
	if !ok {
		return
	}
	if err := sess.Retry(); err != nil {
		p.writeSessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, snapshotOf(sess))
}

func (p *Plugin) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	sess, ok := p.sessions.Get(r.PathValue("id"))
	if !ok {
		server.NotFound(w, "session not found", r.URL.Path)
		return nil, false
	}
	return sess, true
}

func (p *Plugin) writeView(w http.ResponseWriter, r *http.Request, v View) {
	switch v.Status {
	case StatusNotFound:
		server.NotFound(w, v.Error, r.URL.Path)
	case StatusLocationError, StatusAssignmentError, StatusProductError:
		p.logger.Warn("menu load failed",
			zap.String("slug", v.Slug),
			zap.String("status", string(v.Status)),
			zap.String("error", v.Error),
		)
		server.BadGateway(w, v.Error, r.URL.Path, v.Retryable)
	default:
		writeJSON(w, http.StatusOK, v)
	}
}

func (p *Plugin) writeSessionError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrSessionClosed) {
		server.NotFound(w, "session closed", r.URL.Path)
		return
	}
	writeSetError(w, r, err)
}

func writeSetError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *params.ValidationError
	if errors.As(err, &ve) {
		server.Unprocessable(w, ve.Key, ve.Error(), r.URL.Path)
		return
	}
	server.InternalError(w, err.Error(), r.URL.Path)
}

func snapshotOf(sess *Session) sessionResponse {
	return sessionResponse{
		ID:            sess.ID(),
		PendingSearch: sess.PendingSearch(),
		View:          sess.Snapshot(),
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		server.BadRequest(w, "invalid JSON body: "+err.Error(), r.URL.Path)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
