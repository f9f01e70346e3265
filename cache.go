package accounts

import (
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultRecordCacheSize bounds the read-through user record cache.
const defaultRecordCacheSize = 1024

// recordCache is the read-through cache in front of the users table, keyed
// by record id. Entries are stored and returned as copies so cached state
// can never be mutated through an aliased pointer. Every repository mutator
// invalidates the entry for the record it touched.
type recordCache struct {
	entries *lru.Cache[uuid.UUID, User]
}

func newRecordCache(size int) *recordCache {
	if size <= 0 {
		size = defaultRecordCacheSize
	}

	entries, err := lru.New[uuid.UUID, User](size)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}

	return &recordCache{entries: entries}
}

func (c *recordCache) get(id uuid.UUID) (*User, bool) {
	if c == nil {
		return nil, false
	}
	entry, ok := c.entries.Get(id)
	if !ok {
		return nil, false
	}
	copied := entry
	return &copied, true
}

func (c *recordCache) put(user *User) {
	if c == nil || user == nil || user.ID == uuid.Nil {
		return
	}
	c.entries.Add(user.ID, *user)
}

func (c *recordCache) invalidate(id uuid.UUID) {
	if c == nil {
		return
	}
	c.entries.Remove(id)
}

func (c *recordCache) purge() {
	if c == nil {
		return
	}
	c.entries.Purge()
}
