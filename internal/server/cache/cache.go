// Package cache remembers subscriptions after they leave the client's set,
// so the API can answer 410 Gone with their final state instead of 404.
// Entries expire after a TTL; it is backed by patrickmn/go-cache.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/agentstation/waypoint"
	"github.com/agentstation/waypoint/pkg/visits"
)

// Tombstone is the final record of a removed subscription.
type Tombstone struct {
	waypoint.Status
	Reason    string    `json:"reason" yaml:"reason"`
	Message   string    `json:"message" yaml:"message"`
	RemovedAt time.Time `json:"removed_at" yaml:"removed_at"`
}

// NewTombstone records r as removed for reason.
func NewTombstone(r *visits.Request, reason error) Tombstone {
	t := Tombstone{
		Status:    waypoint.StatusOf(r),
		Reason:    visits.ReasonCode(reason),
		RemovedAt: time.Now().UTC(),
	}
	if reason != nil {
		t.Message = reason.Error()
	}
	return t
}

// Tombstones is a TTL cache of removed subscriptions keyed by ID.
type Tombstones struct {
	store *gocache.Cache
}

// New creates a tombstone cache. ttl is how long a removed subscription is
// remembered; expired entries are purged every cleanupInterval.
func New(ttl, cleanupInterval time.Duration) *Tombstones {
	return &Tombstones{
		store: gocache.New(ttl, cleanupInterval),
	}
}

// Put remembers t with the default TTL.
func (c *Tombstones) Put(t Tombstone) {
	c.store.Set(t.ID.String(), t, gocache.DefaultExpiration)
}

// Get returns the tombstone for id, if it has not expired.
func (c *Tombstones) Get(id visits.ID) (Tombstone, bool) {
	v, ok := c.store.Get(id.String())
	if !ok {
		return Tombstone{}, false
	}
	t, ok := v.(Tombstone)
	return t, ok
}

// Forget drops the tombstone for id.
func (c *Tombstones) Forget(id visits.ID) {
	c.store.Delete(id.String())
}

// Len returns the number of remembered subscriptions, expired entries
// awaiting cleanup included.
func (c *Tombstones) Len() int {
	return c.store.ItemCount()
}

// Flush forgets every subscription.
func (c *Tombstones) Flush() {
	c.store.Flush()
}
