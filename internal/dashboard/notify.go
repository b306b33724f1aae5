package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// NotificationKind is the tone of a notification.
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notification is a short-lived message shown after a user action.
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"created_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// Notifier keeps the active notifications and removes each one exactly ttl
// after it was added.
type Notifier struct {
	mu    sync.Mutex
	ttl   time.Duration
	items []Notification
	store *Store

	now       func() time.Time
	afterFunc func(d time.Duration, f func())
}

// NewNotifier creates a Notifier that mirrors its list into store (may be nil).
func NewNotifier(ttl time.Duration, store *Store) *Notifier {
	return &Notifier{
		ttl:   ttl,
		store: store,
		now:   time.Now,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

// Success shows a success notification.
func (n *Notifier) Success(message string) Notification {
	return n.add(NotificationSuccess, message)
}

// Error shows an error notification.
func (n *Notifier) Error(message string) Notification {
	return n.add(NotificationError, message)
}

func (n *Notifier) add(kind NotificationKind, message string) Notification {
	created := n.now()
	item := Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		CreatedAt: created,
		ExpiresAt: created.Add(n.ttl),
	}

	n.mu.Lock()
	n.items = append(n.items[:len(n.items):len(n.items)], item)
	n.sync()
	n.mu.Unlock()

	n.afterFunc(n.ttl, func() { n.remove(item.ID) })
	return item
}

func (n *Notifier) remove(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	kept := make([]Notification, 0, len(n.items))
	for _, item := range n.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(n.items) {
		return
	}
	n.items = kept
	n.sync()
}

// sync must be called with n.mu held.
func (n *Notifier) sync() {
	if n.store != nil {
		n.store.setNotifications(n.items)
	}
}

// Active returns the notifications currently shown.
func (n *Notifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.items))
	copy(out, n.items)
	return out
}
