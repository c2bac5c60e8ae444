package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"workOrders/internal/dashboard/models"
	"workOrders/internal/editor"
	"workOrders/internal/pipeline"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

type ReplayResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// OpenEditor starts an edit session for the record with the given request
// number or id and makes it the one shown by the dashboard.
func (d *Dashboard) OpenEditor(ref string) (editor.Session, error) {
	wo, err := d.Find(ref)
	if err != nil {
		return editor.Session{}, err
	}
	s := d.Editor.Open(wo)

	d.mu.Lock()
	d.active = wo.RequestNo
	d.mu.Unlock()
	d.publish()
	return s, nil
}

func (d *Dashboard) UpdateEditor(requestNo, text string) (editor.Session, error) {
	return d.Editor.SetBuffer(requestNo, text)
}

// CloseEditor throws the session away without saving.
func (d *Dashboard) CloseEditor(requestNo string) {
	d.Editor.Close(requestNo)

	d.mu.Lock()
	if d.active == requestNo {
		d.active = ""
	}
	d.mu.Unlock()
	d.publish()
}

// SaveActionPlan stores text as the action plan of requestNo. Online it goes
// to the remote and a full reload is scheduled; offline it is queued in the
// cache. Either way the in-memory record is updated right away.
//
// ref is a request number or an id. A save without an open session (the
// JSON API) runs in a session of its own that is never shown in the editor
// dialog and is dropped when the save fails.
func (d *Dashboard) SaveActionPlan(ctx context.Context, ref, text string) (editor.Session, error) {
	wo, err := d.Find(ref)
	if err != nil {
		return editor.Session{}, err
	}
	requestNo := wo.RequestNo
	_, existing := d.Editor.Get(requestNo)
	if !existing {
		d.Editor.Open(wo)
	}
	if _, err := d.Editor.SetBuffer(requestNo, text); err != nil {
		if !existing {
			d.Editor.Close(requestNo)
		}
		return editor.Session{}, err
	}

	online := d.Online()
	var message string
	s, err := d.Editor.Save(ctx, requestNo, func(ctx context.Context, requestNo, plan string) error {
		if !online {
			if _, err := d.Cache.AppendPending(ctx, requestNo, plan, d.Now()); err != nil {
				return errors.Wrap(err, "queueing action plan")
			}
			message = "Action plan saved locally (will sync when online)"
			return nil
		}
		res, err := d.Remote.UpdateActionPlan(ctx, requestNo, plan)
		if err != nil {
			return err
		}
		if !res.Success {
			return errors.New("Failed to save action plan")
		}
		message = res.Message
		if message == "" {
			message = "Action plan saved to remote"
		}
		return nil
	})
	if err != nil {
		var validation *editor.ValidationError
		if errors.As(err, &validation) {
			d.notes.push(KindError, "Validation Error", validation.Error())
		} else {
			log.Printf("ERROR: Error saving action plan for %s: %s", requestNo, err)
			d.notes.push(KindError, "Error", "Failed to save: "+err.Error())
		}
		if !existing {
			d.Editor.Close(requestNo)
		}
		d.publish()
		return s, err
	}

	d.applyActionPlan(requestNo, s.Buffer)
	d.mu.Lock()
	if d.active == requestNo {
		d.active = ""
	}
	d.mu.Unlock()
	d.notes.push(KindSuccess, "Success", message)
	if online {
		d.scheduleReload()
	}
	d.publish()
	return s, nil
}

// applyActionPlan patches copies of the loaded records and the filtered view
// and swaps them in, so slices handed out earlier are never written to. The
// filtered view is not recomputed.
func (d *Dashboard) applyActionPlan(requestNo, plan string) {
	now := d.Now()
	patch := func(orders []models.WorkOrder) []models.WorkOrder {
		out := slices.Clone(orders)
		for i := range out {
			if out[i].RequestNo == requestNo {
				out[i].ActionPlan = plan
				out[i].Updated = now
			}
		}
		return out
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.state.Records = patch(d.state.Records)
	d.state.Filtered = patch(d.state.Filtered)
	d.state.Stats = pipeline.Summarize(d.state.Records)
}

func (d *Dashboard) scheduleReload() {
	delay := d.Config.Get().ReloadDelay()
	d.reloads.Add(1)
	go func() {
		defer d.reloads.Done()
		select {
		case <-d.Ctx.Done():
			return
		case <-time.After(delay):
		}
		if err := d.Load(d.Ctx); err != nil {
			log.Printf("WARNING: reload after save failed: %s", err)
		}
	}()
}

// WaitReloads blocks until every scheduled reload has finished.
func (d *Dashboard) WaitReloads() {
	d.reloads.Wait()
}

// Export renders the filtered view as CSV.
func (d *Dashboard) Export() (filename string, content string, err error) {
	d.mu.Lock()
	filtered := d.state.Filtered
	d.mu.Unlock()

	content, err = pipeline.ToCSV(filtered)
	if err != nil {
		var empty *pipeline.ExportEmptyError
		if errors.As(err, &empty) {
			d.notes.push(KindWarning, "Export Failed", empty.Error())
		} else {
			d.notes.push(KindError, "Export Failed", "Failed to generate CSV file")
		}
		d.publish()
		return "", "", err
	}
	d.notes.push(KindSuccess, "Export Complete", fmt.Sprintf("Exported %d records to CSV", len(filtered)))
	d.publish()
	return pipeline.ExportFilename(d.Now()), content, nil
}

func (d *Dashboard) PendingUpdates(ctx context.Context) ([]models.PendingUpdate, error) {
	return d.Cache.Pending(ctx)
}

// ReplayPending re-sends queued offline edits in order. Only the entries the
// remote accepted are removed from the queue. Nothing calls this
// automatically.
func (d *Dashboard) ReplayPending(ctx context.Context) (ReplayResult, error) {
	if !d.Online() {
		d.Notify(KindWarning, "Sync Unavailable", "Pending updates can only be sent while online")
		return ReplayResult{}, ErrOffline
	}
	pending, err := d.Cache.Pending(ctx)
	if err != nil {
		return ReplayResult{}, err
	}
	if len(pending) == 0 {
		d.Notify(KindInfo, "Nothing to Sync", "There are no pending updates")
		return ReplayResult{}, nil
	}

	var lastErr error
	sent := []string{}
	for _, p := range pending {
		res, err := d.Remote.UpdateActionPlan(ctx, p.RequestNo, p.ActionPlan)
		if err == nil && !res.Success {
			err = errors.New("Failed to save action plan")
		}
		if err != nil {
			log.Printf("WARNING: pending update %s for %s not sent: %s", p.Id, p.RequestNo, err)
			lastErr = err
			continue
		}
		sent = append(sent, p.Id)
	}
	if err := d.Cache.RemovePending(ctx, sent); err != nil {
		return ReplayResult{Sent: len(sent), Failed: len(pending) - len(sent)}, err
	}

	result := ReplayResult{Sent: len(sent), Failed: len(pending) - len(sent)}
	if result.Failed > 0 {
		d.notes.push(KindWarning, "Sync Incomplete", fmt.Sprintf("Sent %d of %d pending updates", result.Sent, len(pending)))
	} else {
		d.notes.push(KindSuccess, "Sync Complete", fmt.Sprintf("Sent %d pending updates", result.Sent))
	}
	if result.Sent > 0 {
		d.scheduleReload()
	}
	d.publish()
	if result.Sent == 0 {
		return result, lastErr
	}
	return result, nil
}
