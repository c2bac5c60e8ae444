package actualizer

import (
	"context"
	"log"
	"time"

	"workOrders/internal/configuration"

	interval "github.com/go-follow/time-interval"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// Loader is the part of the dashboard the actualizer refreshes.
type Loader interface {
	Load(ctx context.Context) error
	Online() bool
}

// Actualizer reloads the dashboard on the configured refresh schedule while
// the dashboard is online and inside a sync window.
type Actualizer struct {
	Loader Loader
	Config *configuration.Configurator
	Now    func() time.Time

	cron *cron.Cron
}

func NewActualizer(loader Loader, config *configuration.Configurator) *Actualizer {
	return &Actualizer{
		Loader: loader,
		Config: config,
		Now:    time.Now,
	}
}

// Run starts the cron job. An empty schedule disables it. The job stops
// when ctx is done.
func (a *Actualizer) Run(ctx context.Context) error {
	conf := a.Config.Get()
	if conf.RefreshSchedule == "" {
		log.Println("Auto refresh disabled")
		return nil
	}
	loc := conf.Location
	if loc == nil {
		loc = time.Local
	}

	a.cron = cron.New(cron.WithLocation(loc))
	if _, err := a.cron.AddFunc(conf.RefreshSchedule, func() { a.actualize(ctx) }); err != nil {
		return errors.Wrapf(err, "invalid refresh schedule %q", conf.RefreshSchedule)
	}
	a.cron.Start()
	log.Printf("Auto refresh scheduled: %s", conf.RefreshSchedule)

	go func() {
		<-ctx.Done()
		<-a.cron.Stop().Done()
	}()
	return nil
}

func (a *Actualizer) actualize(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !a.Loader.Online() {
		return
	}
	conf := a.Config.Get()
	if !InSyncWindow(a.Now(), conf.SyncWindows, conf.Location) {
		return
	}
	if err := a.Loader.Load(ctx); err != nil {
		log.Printf("WARNING: Find error while refreshing work orders, %s\n", err)
	}
}

// InSyncWindow reports whether now falls into one of the daily windows,
// read in loc. No windows means always. A window ending before it starts
// covers the evening of the day and the early hours of the next one.
func InSyncWindow(now time.Time, windows []configuration.Window, loc *time.Location) bool {
	if len(windows) == 0 {
		return true
	}
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	instant, err := interval.New(now, now.Add(time.Nanosecond))
	if err != nil {
		return false
	}
	spans := syncSpans(now, windows)
	return spans.IsContains(instant)
}

// syncSpans lays the windows out over the calendar day of now.
func syncSpans(now time.Time, windows []configuration.Window) interval.SpanMany {
	at := func(hour uint32) time.Time {
		return time.Date(now.Year(), now.Month(), now.Day(), int(hour), 0, 0, 0, now.Location())
	}
	spans := interval.NewMany()
	add := func(start, end time.Time) {
		if err := spans.Add(start, end); err != nil {
			log.Printf("WARNING: Find error while parsing sync window %s - %s, %s\n", start, end, err)
		}
	}
	for _, w := range windows {
		if w.StartHour < w.EndHour {
			add(at(w.StartHour), at(w.EndHour))
			continue
		}
		if w.EndHour > 0 {
			add(at(0), at(w.EndHour))
		}
		add(at(w.StartHour), at(24))
	}
	return spans
}
