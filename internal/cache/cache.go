// Package cache keeps the last good work order snapshot, the time it was
// taken and the queue of action plans saved while offline on top of a
// repository.ReadWriteRepository.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"workOrders/internal/dashboard/models"
	"workOrders/internal/repository"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
)

const (
	KeyWorkOrders     = "cachedWorkOrders"
	KeyLastSync       = "lastSyncTime"
	KeyPendingUpdates = "pendingUpdates"
)

type NoCacheAvailable struct {
	text string
}

func (e *NoCacheAvailable) Error() string {
	return e.text
}

func NewNoCacheAvailable() *NoCacheAvailable {
	return &NoCacheAvailable{text: "No cached data available"}
}

type Cache struct {
	repo repository.ReadWriteRepository
	// guards read-modify-write of the pending queue
	mu sync.Mutex
}

func New(repo repository.ReadWriteRepository) *Cache {
	return &Cache{repo: repo}
}

// SaveWorkOrders stores the raw data array exactly as received together with
// the sync time.
func (c *Cache) SaveWorkOrders(ctx context.Context, data json.RawMessage, now time.Time) error {
	if len(data) == 0 {
		data = json.RawMessage("[]")
	}
	if err := c.repo.Set(ctx, KeyWorkOrders, string(data)); err != nil {
		return errors.Wrap(err, "caching work orders")
	}
	if err := c.repo.Set(ctx, KeyLastSync, now.UTC().Format(time.RFC3339Nano)); err != nil {
		return errors.Wrap(err, "caching sync time")
	}
	return nil
}

func (c *Cache) LoadWorkOrders(ctx context.Context) ([]models.RawRow, error) {
	value, err := c.get(ctx, KeyWorkOrders)
	if err != nil {
		return nil, err
	}
	if value == "" {
		return nil, NewNoCacheAvailable()
	}
	rows := []models.RawRow{}
	if err := json.Unmarshal([]byte(value), &rows); err != nil {
		return nil, errors.Wrap(err, "decoding cached work orders")
	}
	return rows, nil
}

// LastSync reports the time of the last successful remote load, if any.
func (c *Cache) LastSync(ctx context.Context) (time.Time, bool, error) {
	value, err := c.get(ctx, KeyLastSync)
	var noCache *NoCacheAvailable
	if errors.As(err, &noCache) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, false, errors.Wrapf(err, "parsing %s", KeyLastSync)
	}
	return ts, true, nil
}

// AppendPending queues an action plan edit. Existing entries are never
// touched, duplicates for the same request are kept.
func (c *Cache) AppendPending(ctx context.Context, requestNo, actionPlan string, now time.Time) (*models.PendingUpdate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pending, err := c.pending(ctx)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	update := models.PendingUpdate{
		Id:         id.String(),
		RequestNo:  requestNo,
		ActionPlan: actionPlan,
		Timestamp:  now.UTC(),
	}
	pending = append(pending, update)
	if err := c.putPending(ctx, pending); err != nil {
		return nil, err
	}
	return &update, nil
}

func (c *Cache) Pending(ctx context.Context) ([]models.PendingUpdate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pending(ctx)
}

// RemovePending drops the entries with the given ids and keeps the order of
// the rest.
func (c *Cache) RemovePending(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	pending, err := c.pending(ctx)
	if err != nil {
		return err
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := []models.PendingUpdate{}
	for _, p := range pending {
		if _, ok := drop[p.Id]; !ok {
			kept = append(kept, p)
		}
	}
	return c.putPending(ctx, kept)
}

func (c *Cache) pending(ctx context.Context) ([]models.PendingUpdate, error) {
	pending := []models.PendingUpdate{}
	value, err := c.get(ctx, KeyPendingUpdates)
	var noCache *NoCacheAvailable
	if errors.As(err, &noCache) {
		return pending, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(value), &pending); err != nil {
		return nil, errors.Wrap(err, "decoding pending updates")
	}
	return pending, nil
}

func (c *Cache) putPending(ctx context.Context, pending []models.PendingUpdate) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return err
	}
	return errors.Wrap(c.repo.Set(ctx, KeyPendingUpdates, string(data)), "storing pending updates")
}

// get maps a missing key to NoCacheAvailable.
func (c *Cache) get(ctx context.Context, key string) (string, error) {
	value, err := c.repo.Get(ctx, key)
	var notFound *repository.ErrorNotFound
	if errors.As(err, &notFound) {
		return "", NewNoCacheAvailable()
	}
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", key)
	}
	return value, nil
}
