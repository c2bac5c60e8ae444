package templates

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"workOrders/internal/dashboard/app"
	"workOrders/internal/dashboard/models"
	"workOrders/internal/pipeline"

	"github.com/gorilla/mux"
)

//go:embed dashboard.html
var dashboardHTML string

type Template struct {
	Dashboard *app.Dashboard
	tmpl      *template.Template
}

type Month struct {
	Value string
	Name  string
}

type TemplateData struct {
	app.Snapshot
	Months       []Month
	StatusText   string
	LastSyncText string
	PendingCount int
}

var funcs = template.FuncMap{
	"formatDate":     func(s string) string { return formatDate(s, "2 Jan 2006") },
	"formatLongDate": func(s string) string { return formatDate(s, "Monday, 2 January 2006") },
	"formatCost":     formatCost,
}

func NewTemplate(dashboard *app.Dashboard) *Template {
	return &Template{
		Dashboard: dashboard,
		tmpl:      template.Must(template.New("dashboard").Funcs(funcs).Parse(dashboardHTML)),
	}
}

func formatDate(value, layout string) string {
	if value == "" {
		return "N/A"
	}
	date, ok := pipeline.ParseRequestDate(value, time.UTC)
	if !ok {
		return value
	}
	return date.Format(layout)
}

func formatCost(cost float64) string {
	return "RM " + strconv.FormatFloat(cost, 'f', 2, 64)
}

func months() []Month {
	out := make([]Month, 0, 12)
	for m := time.January; m <= time.December; m++ {
		out = append(out, Month{Value: strconv.Itoa(int(m)), Name: m.String()})
	}
	return out
}

// Register mounts the dashboard page and its form endpoints on r.
func (t *Template) Register(r *mux.Router) {
	r.HandleFunc("/", t.Generate).Methods("GET")
	r.HandleFunc("/filters", t.ApplyFilters).Methods("POST")
	r.HandleFunc("/filters/reset", t.ResetFilters).Methods("POST")
	r.HandleFunc("/page/prev", t.PrevPage).Methods("POST")
	r.HandleFunc("/page/next", t.NextPage).Methods("POST")
	r.HandleFunc("/reload", t.Reload).Methods("POST")
	r.HandleFunc("/export", t.Export).Methods("GET")
	r.HandleFunc("/editor/open", t.OpenEditor).Methods("POST")
	r.HandleFunc("/editor/save", t.SaveEditor).Methods("POST")
	r.HandleFunc("/editor/close", t.CloseEditor).Methods("POST")
	r.HandleFunc("/notifications/{id}/dismiss", t.Dismiss).Methods("POST")
	r.HandleFunc("/connection", t.SetConnection).Methods("POST")
	r.HandleFunc("/pending/replay", t.ReplayPending).Methods("POST")
}

func (t *Template) Generate(w http.ResponseWriter, r *http.Request) {
	snap := t.Dashboard.Snapshot()
	data := TemplateData{
		Snapshot:     snap,
		Months:       months(),
		StatusText:   "Offline - Using cached data",
		LastSyncText: "Never",
	}
	if snap.Online {
		data.StatusText = "Connected to remote"
	}
	if !snap.LastSync.IsZero() {
		data.LastSyncText = snap.LastSync.Local().Format("15:04:05")
	}
	if pending, err := t.Dashboard.PendingUpdates(r.Context()); err != nil {
		log.Printf("WARNING: Can't read pending updates for '/' request, %s", err)
	} else {
		data.PendingCount = len(pending)
	}

	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, data); err != nil {
		log.Printf("ERROR: Can't generate template for '/' request, %s", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func back(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (t *Template) ApplyFilters(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	t.Dashboard.SetFilter(models.FilterState{
		Hospital: r.PostForm.Get("hospital"),
		Year:     r.PostForm.Get("year"),
		Month:    r.PostForm.Get("month"),
		Service:  r.PostForm.Get("service"),
		Search:   strings.TrimSpace(r.PostForm.Get("search")),
	})
	back(w, r)
}

func (t *Template) ResetFilters(w http.ResponseWriter, r *http.Request) {
	t.Dashboard.ResetFilters()
	back(w, r)
}

func (t *Template) PrevPage(w http.ResponseWriter, r *http.Request) {
	t.Dashboard.PrevPage()
	back(w, r)
}

func (t *Template) NextPage(w http.ResponseWriter, r *http.Request) {
	t.Dashboard.NextPage()
	back(w, r)
}

// Reload serves refresh, manual sync and retry. Failures are already part
// of the dashboard state.
func (t *Template) Reload(w http.ResponseWriter, r *http.Request) {
	if err := t.Dashboard.Load(r.Context()); err != nil {
		log.Printf("WARNING: reload requested from the dashboard failed: %s", err)
	}
	back(w, r)
}

func (t *Template) Export(w http.ResponseWriter, r *http.Request) {
	filename, content, err := t.Dashboard.Export()
	if err != nil {
		back(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/csv;charset=utf-8;")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(content))
}

func (t *Template) OpenEditor(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := t.Dashboard.OpenEditor(r.PostForm.Get("ref")); err != nil {
		t.Dashboard.Notify(app.KindError, "Error", err.Error())
	}
	back(w, r)
}

func (t *Template) SaveEditor(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// failures are reported as notifications and keep the editor open
	t.Dashboard.SaveActionPlan(r.Context(), r.PostForm.Get("requestNo"), r.PostForm.Get("actionPlan"))
	back(w, r)
}

func (t *Template) CloseEditor(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	t.Dashboard.CloseEditor(r.PostForm.Get("requestNo"))
	back(w, r)
}

func (t *Template) Dismiss(w http.ResponseWriter, r *http.Request) {
	t.Dashboard.Dismiss(mux.Vars(r)["id"])
	back(w, r)
}

func (t *Template) SetConnection(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	online, err := strconv.ParseBool(r.PostForm.Get("online"))
	if err != nil {
		http.Error(w, "online must be true or false", http.StatusBadRequest)
		return
	}
	t.Dashboard.SetOnline(online)
	back(w, r)
}

func (t *Template) ReplayPending(w http.ResponseWriter, r *http.Request) {
	if _, err := t.Dashboard.ReplayPending(r.Context()); err != nil {
		log.Printf("WARNING: replay requested from the dashboard failed: %s", err)
	}
	back(w, r)
}
