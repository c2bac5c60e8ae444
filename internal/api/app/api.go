package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"workOrders/internal/cache"
	"workOrders/internal/dashboard/app"
	"workOrders/internal/dashboard/models"
	"workOrders/internal/editor"
	"workOrders/internal/pipeline"
	"workOrders/internal/remote"

	pkgerrors "github.com/pkg/errors"
)

type Api struct {
	Dashboard *app.Dashboard
}

func NewApi(dashboard *app.Dashboard) *Api {
	return &Api{
		Dashboard: dashboard,
	}
}

var _ ServerInterface = (*Api)(nil)

type ErrorStruct struct {
	ErrorCode string `json:"errorCode,omitempty"`
	Message   string `json:"message,omitempty"`
}

type StatsResponse struct {
	models.Stats
	Source    app.Source `json:"source"`
	LastSync  *time.Time `json:"lastSync,omitempty"`
	LoadError string     `json:"loadError,omitempty"`
}

type ActionPlanRequest struct {
	ActionPlan string `json:"actionPlan"`
}

type Connection struct {
	Online *bool `json:"online"`
}

func (a *Api) writeError(w http.ResponseWriter, status int, code string, message error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if message == nil {
		message = errors.New("")
	}
	err := ErrorStruct{
		Message:   message.Error(),
		ErrorCode: code,
	}
	errBytes, e := json.Marshal(err)
	if e != nil {
		w.Write([]byte(e.Error()))
	} else {
		w.Write(errBytes)
	}
}

// BadRequest reports parameter binding and validation failures.
func (a *Api) BadRequest(w http.ResponseWriter, r *http.Request, err error) {
	a.writeError(w, http.StatusBadRequest, "Bad request", err)
}

// writeServiceError maps dashboard errors to HTTP statuses.
func (a *Api) writeServiceError(w http.ResponseWriter, err error) {
	var (
		validation *editor.ValidationError
		notFound   *app.RecordNotFound
		empty      *pipeline.ExportEmptyError
		noCache    *cache.NoCacheAvailable
		netErr     *remote.NetworkError
		remoteErr  *remote.RemoteError
	)
	switch {
	case pkgerrors.As(err, &validation):
		a.writeError(w, http.StatusBadRequest, "Bad request", err)
	case pkgerrors.As(err, &notFound):
		a.writeError(w, http.StatusNotFound, "Not found", err)
	case pkgerrors.As(err, &empty), pkgerrors.Is(err, app.ErrOffline), pkgerrors.Is(err, editor.ErrSaveInFlight):
		a.writeError(w, http.StatusConflict, "Conflict", err)
	case pkgerrors.As(err, &noCache):
		a.writeError(w, http.StatusServiceUnavailable, "Service unavailable", err)
	case pkgerrors.As(err, &netErr), pkgerrors.As(err, &remoteErr):
		a.writeError(w, http.StatusBadGateway, "Bad gateway", err)
	default:
		log.Printf("ERROR: %s", err)
		a.writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func (a *Api) writeJSON(w http.ResponseWriter, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, "Internal error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (a *Api) stats() StatsResponse {
	snap := a.Dashboard.Snapshot()
	resp := StatsResponse{
		Stats:     snap.Stats,
		Source:    snap.Source,
		LoadError: snap.LoadError,
	}
	if !snap.LastSync.IsZero() {
		resp.LastSync = &snap.LastSync
	}
	return resp
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (a *Api) ListWorkOrders(w http.ResponseWriter, r *http.Request, params ListWorkOrdersParams) {
	defer r.Body.Close()

	fs := models.FilterState{
		Hospital: deref(params.Hospital),
		Year:     deref(params.Year),
		Month:    deref(params.Month),
		Service:  deref(params.Service),
		Search:   deref(params.Search),
	}
	page := 1
	if params.Page != nil {
		page = *params.Page
	}
	a.writeJSON(w, a.Dashboard.Query(fs, page))
}

func (a *Api) SaveActionPlan(w http.ResponseWriter, r *http.Request, requestNo string) {
	defer r.Body.Close()

	body := ActionPlanRequest{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.writeError(w, http.StatusBadRequest, "Bad request", err)
		return
	}
	if _, err := a.Dashboard.SaveActionPlan(r.Context(), requestNo, body.ActionPlan); err != nil {
		a.writeServiceError(w, err)
		return
	}
	wo, err := a.Dashboard.Find(requestNo)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, wo)
}

func (a *Api) GetStats(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	a.writeJSON(w, a.stats())
}

func (a *Api) GetFilterOptions(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	a.writeJSON(w, a.Dashboard.Snapshot().Options)
}

func (a *Api) Reload(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	if err := a.Dashboard.Load(r.Context()); err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, a.stats())
}

func (a *Api) ExportWorkOrders(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	filename, content, err := a.Dashboard.Export()
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv;charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(content))
}

func (a *Api) ListPending(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	pending, err := a.Dashboard.PendingUpdates(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, pending)
}

func (a *Api) ReplayPending(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	result, err := a.Dashboard.ReplayPending(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, result)
}

func (a *Api) GetConnection(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	online := a.Dashboard.Online()
	a.writeJSON(w, Connection{Online: &online})
}

func (a *Api) SetConnection(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	body := Connection{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.writeError(w, http.StatusBadRequest, "Bad request", err)
		return
	}
	if body.Online == nil {
		a.writeError(w, http.StatusBadRequest, "Bad request", errors.New("online must be set"))
		return
	}
	a.Dashboard.SetOnline(*body.Online)
	online := a.Dashboard.Online()
	a.writeJSON(w, Connection{Online: &online})
}
