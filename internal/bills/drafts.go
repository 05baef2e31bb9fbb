package bills

import (
	"time"

	"github.com/google/uuid"

	"billed/internal/cache"
)

// Drafts keeps in-progress submissions between the file change request and
// the submit request of the same form.
type Drafts struct {
	cache *cache.LRUCache[*Submission]
}

func NewDrafts(maxSize int, ttl time.Duration) *Drafts {
	return &Drafts{cache: cache.NewLRUCache[*Submission](maxSize, ttl)}
}

// Start registers s and returns its draft id.
func (d *Drafts) Start(s *Submission) string {
	id := uuid.NewString()
	d.cache.Set(id, s)
	return id
}

// Get returns the draft id for owner. Drafts of other employees are not visible.
func (d *Drafts) Get(id, owner string) (*Submission, bool) {
	s, ok := d.cache.Get(id)
	if !ok || s.Owner() != owner {
		return nil, false
	}
	return s, true
}

// Finish forgets a draft once it is submitted.
func (d *Drafts) Finish(id string) {
	d.cache.Delete(id)
}

func (d *Drafts) Cleaner() cache.Cleaner {
	return d.cache
}

func (d *Drafts) Len() int {
	return d.cache.Size()
}
