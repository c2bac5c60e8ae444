package app

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"workOrders/internal/cache"
	"workOrders/internal/configuration"
	"workOrders/internal/dashboard/models"
	"workOrders/internal/editor"
	"workOrders/internal/pipeline"
	"workOrders/internal/remote"

	"github.com/pkg/errors"
)

type Source string

const (
	SourceNone   Source = ""
	SourceRemote Source = "remote"
	SourceCache  Source = "cache"
)

type RecordNotFound struct {
	text string
}

func (e *RecordNotFound) Error() string {
	return e.text
}

func NewRecordNotFound(ref string) *RecordNotFound {
	return &RecordNotFound{text: fmt.Sprintf("Work order %s not found", ref)}
}

var ErrOffline = errors.New("Cannot sync while offline")

// Remote is the part of the remote client the dashboard needs.
type Remote interface {
	GetWorkOrders(ctx context.Context) (*remote.ListResult, error)
	GetFilterOptions(ctx context.Context) (*models.FilterOptions, error)
	UpdateActionPlan(ctx context.Context, requestNo, actionPlan string) (*remote.SubmitResult, error)
}

// State is everything the dashboard shows. Records is replaced wholesale on
// every load, Filtered is always recomputed from Records.
type State struct {
	Records   []models.WorkOrder
	Filtered  []models.WorkOrder
	Filter    models.FilterState
	Page      int
	Stats     models.Stats
	Options   models.FilterOptions
	Source    Source
	LastSync  time.Time
	LoadError string
	Loading   bool
}

// Snapshot is a read-only view of the state with the current page resolved.
type Snapshot struct {
	Filter        models.FilterState   `json:"filter"`
	FilterSummary string               `json:"filterSummary"`
	Page          pipeline.Page        `json:"page"`
	Stats         models.Stats         `json:"stats"`
	Options       models.FilterOptions `json:"options"`
	Source        Source               `json:"source"`
	LastSync      time.Time            `json:"lastSync"`
	LoadError     string               `json:"loadError,omitempty"`
	Loading       bool                 `json:"loading"`
	Online        bool                 `json:"online"`
	Notifications []Notification       `json:"notifications"`
	Editor        *editor.Session      `json:"editor,omitempty"`
}

type Dashboard struct {
	Ctx    context.Context
	Remote Remote
	Cache  *cache.Cache
	Config *configuration.Configurator
	Editor *editor.Editor
	Now    func() time.Time

	mu     sync.Mutex
	state  State
	online bool
	// request number of the session shown in the editor dialog
	active string

	notes   *notifier
	subsMu  sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
	reloads sync.WaitGroup
}

func NewDashboard(ctx context.Context, r Remote, c *cache.Cache, config *configuration.Configurator) *Dashboard {
	d := &Dashboard{
		Ctx:    ctx,
		Remote: r,
		Cache:  c,
		Config: config,
		Editor: editor.New(),
		Now:    time.Now,
		online: !config.Get().Offline,
		subs:   make(map[int]func(Snapshot)),
	}
	d.state.Filter = models.DefaultFilterState()
	d.state.Page = 1
	d.notes = &notifier{
		ttl: func() time.Duration { return d.Config.Get().NotificationTTL() },
		now: func() time.Time { return d.Now() },
	}
	return d
}

func (d *Dashboard) pageSize() int {
	if size := d.Config.Get().PageSize; size > 0 {
		return size
	}
	return pipeline.DefaultPageSize
}

// Load fetches the work orders (or reads the cache when offline), falls back
// to the cache on failure and replaces the record set. Filter options come
// from the remote when it answers and are built from the records otherwise. When neither source
// works the previous records stay and the load error is kept in the state.
func (d *Dashboard) Load(ctx context.Context) error {
	d.setLoading(true)
	defer d.setLoading(false)

	conf := d.Config.Get()
	online := d.Online()
	now := d.Now()

	var (
		rows     []models.RawRow
		source   Source
		lastSync time.Time
		loadErr  error
		fallback bool
		options  *models.FilterOptions
	)
	if online {
		res, err := d.Remote.GetWorkOrders(ctx)
		if err != nil {
			log.Printf("ERROR: Error loading work orders: %s", err)
			loadErr = err
		} else {
			rows, source, lastSync = res.Rows, SourceRemote, now
			if err := d.Cache.SaveWorkOrders(ctx, res.Raw, now); err != nil {
				log.Printf("WARNING: work orders are not cached: %s", err)
			}
			if opts, err := d.Remote.GetFilterOptions(ctx); err != nil {
				log.Printf("WARNING: filter options are built from the loaded work orders: %s", err)
			} else {
				options = opts
			}
		}
	} else {
		cached, err := d.Cache.LoadWorkOrders(ctx)
		if err != nil {
			loadErr = err
		} else {
			rows, source = cached, SourceCache
			d.notes.push(KindWarning, "Offline Mode", "Using cached data")
		}
	}

	if loadErr != nil && online {
		cached, err := d.Cache.LoadWorkOrders(ctx)
		if err != nil {
			log.Printf("ERROR: Cache also failed: %s", err)
		} else {
			rows, source, loadErr, fallback = cached, SourceCache, nil, true
			d.notes.push(KindWarning, "Using Cached Data", "Unable to connect to remote")
		}
	}

	if loadErr != nil {
		d.mu.Lock()
		d.state.LoadError = "Failed to load data: " + loadErr.Error()
		d.mu.Unlock()
		d.publish()
		return loadErr
	}

	if source == SourceCache {
		if ts, ok, err := d.Cache.LastSync(ctx); err == nil && ok {
			lastSync = ts
		}
	}

	orders := pipeline.Normalize(rows, now, conf.Location)

	d.mu.Lock()
	d.state.Records = orders
	if options != nil {
		d.state.Options = *options
	} else {
		d.state.Options = pipeline.Options(orders)
	}
	d.state.Stats = pipeline.Summarize(orders)
	d.state.Source = source
	d.state.LastSync = lastSync
	d.state.LoadError = ""
	d.recomputeLocked()
	d.mu.Unlock()

	if !fallback {
		d.notes.push(KindSuccess, "Data Loaded", fmt.Sprintf("Loaded %d work orders from %s", len(orders), source))
	}
	d.publish()
	return nil
}

func (d *Dashboard) setLoading(loading bool) {
	d.mu.Lock()
	d.state.Loading = loading
	d.mu.Unlock()
}

// recomputeLocked rebuilds the filtered view and goes back to page 1.
func (d *Dashboard) recomputeLocked() {
	d.state.Filtered = pipeline.ApplyFilters(d.state.Records, d.state.Filter)
	d.state.Page = 1
}

func (d *Dashboard) SetFilter(fs models.FilterState) {
	d.mu.Lock()
	d.state.Filter = fs.Normalized()
	d.recomputeLocked()
	d.mu.Unlock()
	d.publish()
}

func (d *Dashboard) ResetFilters() {
	d.mu.Lock()
	d.state.Filter = models.DefaultFilterState()
	d.recomputeLocked()
	d.mu.Unlock()
	d.notes.push(KindInfo, "Filters Reset", "All filters have been reset")
	d.publish()
}

// SetPage moves to page, clamped to the available pages.
func (d *Dashboard) SetPage(page int) int {
	d.mu.Lock()
	totalPages := pipeline.TotalPages(len(d.state.Filtered), d.pageSize())
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	d.state.Page = page
	d.mu.Unlock()
	d.publish()
	return page
}

func (d *Dashboard) PrevPage() int {
	d.mu.Lock()
	page := pipeline.Prev(d.state.Page)
	d.mu.Unlock()
	return d.SetPage(page)
}

func (d *Dashboard) NextPage() int {
	d.mu.Lock()
	page := pipeline.Next(d.state.Page, pipeline.TotalPages(len(d.state.Filtered), d.pageSize()))
	d.mu.Unlock()
	return d.SetPage(page)
}

func (d *Dashboard) Snapshot() Snapshot {
	d.mu.Lock()
	snap := Snapshot{
		Filter:        d.state.Filter,
		FilterSummary: pipeline.Describe(d.state.Filter),
		Page:          pipeline.Paginate(d.state.Filtered, d.state.Page, d.pageSize()),
		Stats:         d.state.Stats,
		Options:       d.state.Options,
		Source:        d.state.Source,
		LastSync:      d.state.LastSync,
		LoadError:     d.state.LoadError,
		Loading:       d.state.Loading,
		Online:        d.online,
	}
	active := d.active
	d.mu.Unlock()

	snap.Notifications = d.notes.active()
	if active != "" {
		if s, ok := d.Editor.Get(active); ok {
			snap.Editor = &s
		}
	}
	return snap
}

// Query filters and pages the loaded records without touching the
// dashboard's own filter or page.
func (d *Dashboard) Query(fs models.FilterState, page int) pipeline.Page {
	d.mu.Lock()
	records := d.state.Records
	d.mu.Unlock()
	return pipeline.Paginate(pipeline.ApplyFilters(records, fs), page, d.pageSize())
}

// Find looks a record up by request number first and then by id.
func (d *Dashboard) Find(ref string) (models.WorkOrder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, wo := range d.state.Records {
		if wo.RequestNo == ref {
			return wo, nil
		}
	}
	if id, err := strconv.Atoi(ref); err == nil {
		for _, wo := range d.state.Records {
			if wo.Id == id {
				return wo, nil
			}
		}
	}
	return models.WorkOrder{}, NewRecordNotFound(ref)
}

func (d *Dashboard) Online() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.online
}

// SetOnline switches connectivity and reports whether it changed.
func (d *Dashboard) SetOnline(online bool) bool {
	d.mu.Lock()
	changed := d.online != online
	d.online = online
	d.mu.Unlock()
	if !changed {
		return false
	}
	if online {
		d.notes.push(KindSuccess, "Connection restored", "Connected to network")
	} else {
		d.notes.push(KindWarning, "Connection lost", "Working in offline mode")
	}
	d.publish()
	return true
}

func (d *Dashboard) Notify(kind Kind, title, message string) Notification {
	n := d.notes.push(kind, title, message)
	d.publish()
	return n
}

func (d *Dashboard) Dismiss(id string) bool {
	return d.notes.dismiss(id)
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned func unregisters it.
func (d *Dashboard) Subscribe(fn func(Snapshot)) func() {
	d.subsMu.Lock()
	defer d.subsMu.Unlock()

	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn
	return func() {
		d.subsMu.Lock()
		defer d.subsMu.Unlock()
		delete(d.subs, id)
	}
}

func (d *Dashboard) publish() {
	d.subsMu.Lock()
	subs := make([]func(Snapshot), 0, len(d.subs))
	for _, fn := range d.subs {
		subs = append(subs, fn)
	}
	d.subsMu.Unlock()
	if len(subs) == 0 {
		return
	}
	snap := d.Snapshot()
	for _, fn := range subs {
		fn(snap)
	}
}
