package app

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// Notification is a transient toast shown on the dashboard.
type Notification struct {
	Id      string    `json:"id"`
	Kind    Kind      `json:"kind"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Created time.Time `json:"created"`
	Expires time.Time `json:"expires"`
}

type notifier struct {
	mu    sync.Mutex
	items []Notification
	ttl   func() time.Duration
	now   func() time.Time
}

func (n *notifier) push(kind Kind, title, message string) Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	item := Notification{
		Id:      uuid.NewString(),
		Kind:    kind,
		Title:   title,
		Message: message,
		Created: now,
		Expires: now.Add(n.ttl()),
	}
	n.items = append(n.prune(now), item)
	return item
}

// active drops expired items and returns the rest, oldest first.
func (n *notifier) active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.items = n.prune(n.now())
	out := make([]Notification, len(n.items))
	copy(out, n.items)
	return out
}

func (n *notifier) dismiss(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, item := range n.items {
		if item.Id == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return true
		}
	}
	return false
}

func (n *notifier) prune(now time.Time) []Notification {
	kept := n.items[:0]
	for _, item := range n.items {
		if now.Before(item.Expires) {
			kept = append(kept, item)
		}
	}
	return kept
}
