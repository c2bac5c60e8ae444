package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"workOrders/internal/cache"
	"workOrders/internal/configuration"
	"workOrders/internal/dashboard/app"
	"workOrders/internal/dashboard/models"
	"workOrders/internal/pipeline"
	"workOrders/internal/remote"
	inmemoryrepository "workOrders/internal/repository/inmemory_repository"

	"github.com/gorilla/mux"
)

type stubRemote struct {
	mu      sync.Mutex
	rows    []models.RawRow
	listErr error
	updates int
}

func (s *stubRemote) GetWorkOrders(ctx context.Context) (*remote.ListResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	raw, _ := json.Marshal(s.rows)
	var copied []models.RawRow
	json.Unmarshal(raw, &copied)
	return &remote.ListResult{Rows: copied, Raw: raw}, nil
}

func (s *stubRemote) GetFilterOptions(ctx context.Context) (*models.FilterOptions, error) {
	return nil, remote.NewRemoteError("Unknown action")
}

func (s *stubRemote) UpdateActionPlan(ctx context.Context, requestNo, actionPlan string) (*remote.SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	for _, row := range s.rows {
		if row["REQUEST NO"] == requestNo {
			row["ACTION PLAN"] = actionPlan
		}
	}
	return &remote.SubmitResult{Success: true}, nil
}

func newTestServer(t *testing.T, r *stubRemote, offline bool) (*httptest.Server, *app.Dashboard) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	conf := configuration.NewConfigurator(ctx, "")
	conf.Data = &configuration.Config{
		PageSize:               15,
		ReloadDelayMs:          5,
		NotificationTTLSeconds: 5,
		Offline:                offline,
		Location:               time.UTC,
	}
	d := app.NewDashboard(ctx, r, cache.New(inmemoryrepository.NewInmemoryRepository()), conf)

	router := mux.NewRouter()
	if err := Register(NewApi(d), router); err != nil {
		t.Fatalf("register api: %v", err)
	}
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		d.WaitReloads()
	})
	return srv, d
}

func rows() []models.RawRow {
	return []models.RawRow{
		{"REQUEST NO": "A1", "HOSPITAL": "H1", "REQUEST DATE": "2024-03-05", "COST": "12000"},
		{"REQUEST NO": "A2", "HOSPITAL": "H2", "REQUEST DATE": "2023-11-01", "COST": "3000"},
	}
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestSpecIsValid(t *testing.T) {
	if _, err := GetSwagger(); err != nil {
		t.Fatalf("embedded OpenAPI document is invalid: %v", err)
	}
}

func TestListWorkOrders(t *testing.T) {
	srv, d := newTestServer(t, &stubRemote{rows: rows()}, false)
	d.Load(context.Background())

	resp := do(t, http.MethodGet, srv.URL+"/api/work-orders?year=2023", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	var page pipeline.Page
	decode(t, resp, &page)
	if page.Total != 1 || page.Items[0].RequestNo != "A2" || page.From != 1 || page.To != 1 {
		t.Errorf("unexpected page %+v", page)
	}

	for _, query := range []string{"page=0", "page=abc"} {
		t.Run(query, func(t *testing.T) {
			resp := do(t, http.MethodGet, srv.URL+"/api/work-orders?"+query, "")
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("want 400, got %d", resp.StatusCode)
			}
			var e ErrorStruct
			decode(t, resp, &e)
			if e.ErrorCode != "Bad request" {
				t.Errorf("unexpected error body %+v", e)
			}
		})
	}
}

func TestSaveActionPlan(t *testing.T) {
	r := &stubRemote{rows: rows()}
	srv, d := newTestServer(t, r, false)
	d.Load(context.Background())

	cases := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"missing field", "/api/work-orders/A1/action-plan", `{}`, http.StatusBadRequest},
		{"blank plan", "/api/work-orders/A1/action-plan", `{"actionPlan":"   "}`, http.StatusBadRequest},
		{"unknown record", "/api/work-orders/ZZ/action-plan", `{"actionPlan":"Fix"}`, http.StatusNotFound},
		{"saved", "/api/work-orders/A1/action-plan", `{"actionPlan":"Replace pump"}`, http.StatusOK},
		{"saved by id", "/api/work-orders/2/action-plan", `{"actionPlan":"Order part"}`, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, srv.URL+tc.path, tc.body)
			if resp.StatusCode != tc.status {
				t.Errorf("want %d, got %d", tc.status, resp.StatusCode)
			}
		})
	}

	wo, err := d.Find("A1")
	if err != nil || wo.ActionPlan != "Replace pump" {
		t.Errorf("record not updated: %+v %v", wo, err)
	}
	if wo, err := d.Find("A2"); err != nil || wo.ActionPlan != "Order part" {
		t.Errorf("record saved by id not updated: %+v %v", wo, err)
	}
	r.mu.Lock()
	updates := r.updates
	r.mu.Unlock()
	if updates != 2 {
		t.Errorf("want two remote updates, got %d", updates)
	}
	if snap := d.Snapshot(); snap.Editor != nil {
		t.Errorf("API saves must not open the dashboard editor, got %+v", snap.Editor)
	}
}

func TestStatsAndOptions(t *testing.T) {
	srv, d := newTestServer(t, &stubRemote{rows: rows()}, false)
	d.Load(context.Background())

	var stats StatsResponse
	decode(t, do(t, http.MethodGet, srv.URL+"/api/stats", ""), &stats)
	if stats.Total != 2 || stats.Open != 2 || stats.Source != app.SourceRemote || stats.LastSync == nil {
		t.Errorf("unexpected stats %+v", stats)
	}

	var opts models.FilterOptions
	decode(t, do(t, http.MethodGet, srv.URL+"/api/filter-options", ""), &opts)
	if len(opts.Hospitals) != 2 || opts.Years[0] != 2024 {
		t.Errorf("unexpected options %+v", opts)
	}
}

func TestReloadErrors(t *testing.T) {
	t.Run("remote failure without cache", func(t *testing.T) {
		srv, _ := newTestServer(t, &stubRemote{listErr: remote.NewHTTPStatusError(500)}, false)
		resp := do(t, http.MethodPost, srv.URL+"/api/reload", "")
		if resp.StatusCode != http.StatusBadGateway {
			t.Errorf("want 502, got %d", resp.StatusCode)
		}
	})
	t.Run("offline without cache", func(t *testing.T) {
		srv, _ := newTestServer(t, &stubRemote{}, true)
		resp := do(t, http.MethodPost, srv.URL+"/api/reload", "")
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("want 503, got %d", resp.StatusCode)
		}
	})
	t.Run("success", func(t *testing.T) {
		srv, _ := newTestServer(t, &stubRemote{rows: rows()}, false)
		resp := do(t, http.MethodPost, srv.URL+"/api/reload", "")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("want 200, got %d", resp.StatusCode)
		}
	})
}

func TestExport(t *testing.T) {
	srv, d := newTestServer(t, &stubRemote{rows: rows()}, false)

	resp := do(t, http.MethodGet, srv.URL+"/api/export", "")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("empty export: want 409, got %d", resp.StatusCode)
	}

	d.Load(context.Background())
	resp = do(t, http.MethodGet, srv.URL+"/api/export", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv") {
		t.Errorf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(resp.Header.Get("Content-Disposition"), "work-orders-") {
		t.Errorf("unexpected disposition %q", resp.Header.Get("Content-Disposition"))
	}
}

func TestConnectionAndPending(t *testing.T) {
	r := &stubRemote{rows: rows()}
	srv, d := newTestServer(t, r, false)
	d.Load(context.Background())

	resp := do(t, http.MethodPut, srv.URL+"/api/connection", `{"online":false}`)
	var conn Connection
	decode(t, resp, &conn)
	if resp.StatusCode != http.StatusOK || conn.Online == nil || *conn.Online {
		t.Fatalf("unexpected connection response %d %+v", resp.StatusCode, conn)
	}
	if resp := do(t, http.MethodPut, srv.URL+"/api/connection", `{}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing online flag: want 400, got %d", resp.StatusCode)
	}

	do(t, http.MethodPost, srv.URL+"/api/work-orders/A2/action-plan", `{"actionPlan":"Offline plan"}`)
	var pending []models.PendingUpdate
	decode(t, do(t, http.MethodGet, srv.URL+"/api/pending", ""), &pending)
	if len(pending) != 1 || pending[0].RequestNo != "A2" {
		t.Fatalf("want one pending update, got %+v", pending)
	}

	if resp := do(t, http.MethodPost, srv.URL+"/api/pending/replay", ""); resp.StatusCode != http.StatusConflict {
		t.Errorf("replay while offline: want 409, got %d", resp.StatusCode)
	}

	do(t, http.MethodPut, srv.URL+"/api/connection", `{"online":true}`)
	var result app.ReplayResult
	decode(t, do(t, http.MethodPost, srv.URL+"/api/pending/replay", ""), &result)
	if result.Sent != 1 || result.Failed != 0 {
		t.Errorf("unexpected replay result %+v", result)
	}
}
