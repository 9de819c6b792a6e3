// Package listfile is a concurrency-safe accessor for JSON list files
// shared between possibly-concurrent worldctl invocations, such as a
// world's whitelist.json. The on-disk file is the single source of
// truth: every access is a locked read-modify-write and no in-memory
// state outlives one call.
package listfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"

	"wurstmineberg/worldctl/internal/domain"
)

const (
	// lockTimeout bounds how long a caller waits for the file lock
	// before giving up with a LockError.
	lockTimeout = 10 * time.Second

	// lockRetryInterval is the poll interval while waiting.
	lockRetryInterval = 50 * time.Millisecond
)

// Entry is one list element: an opaque identifier plus a user-visible
// label, named uuid/name on disk to match the server's whitelist
// format. Fields this tool does not know about survive a round trip.
type Entry struct {
	UUID string
	Name string

	extra map[string]json.RawMessage
}

// NewEntry returns an Entry with the given identifier and label.
func NewEntry(uuid, name string) Entry {
	return Entry{UUID: uuid, Name: name}
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["uuid"]; ok {
		if err := json.Unmarshal(v, &e.UUID); err != nil {
			return err
		}
		delete(raw, "uuid")
	}
	if v, ok := raw["name"]; ok {
		if err := json.Unmarshal(v, &e.Name); err != nil {
			return err
		}
		delete(raw, "name")
	}
	if len(raw) > 0 {
		e.extra = raw
	}
	return nil
}

func (e Entry) MarshalJSON() ([]byte, error) {
	raw := make(map[string]json.RawMessage, len(e.extra)+2)
	for k, v := range e.extra {
		raw[k] = v
	}
	uuid, err := json.Marshal(e.UUID)
	if err != nil {
		return nil, err
	}
	name, err := json.Marshal(e.Name)
	if err != nil {
		return nil, err
	}
	raw["uuid"] = uuid
	raw["name"] = name
	return json.Marshal(raw)
}

// List is the in-memory form of the file during one mutation.
type List struct {
	Entries []Entry
}

// Add appends an entry. Identifiers are unique within the list; adding
// a duplicate is an error.
func (l *List) Add(e Entry) error {
	for _, existing := range l.Entries {
		if existing.UUID == e.UUID {
			return fmt.Errorf("entry %s (%s) already present", e.UUID, e.Name)
		}
	}
	l.Entries = append(l.Entries, e)
	return nil
}

// Remove deletes the entry with the given identifier and reports
// whether it was present.
func (l *List) Remove(uuid string) bool {
	for i, e := range l.Entries {
		if e.UUID == uuid {
			l.Entries = append(l.Entries[:i], l.Entries[i+1:]...)
			return true
		}
	}
	return false
}

// Find returns the entry with the given identifier.
func (l *List) Find(uuid string) (Entry, bool) {
	for _, e := range l.Entries {
		if e.UUID == uuid {
			return e, true
		}
	}
	return Entry{}, false
}

// WithList runs mutate against the list stored at path as one atomic
// unit: exclusive lock, read, parse, mutate, serialize, rename into
// place, unlock. The lock is released on every exit path, and no
// cooperating process ever observes a half-written file.
//
// The lock lives in a sidecar <path>.lock file: the data file itself
// is replaced by rename, so a lock on its inode would not survive the
// write.
func WithList(path string, mutate func(*List) error) error {
	lock := flock.New(path + ".lock")

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil || !locked {
		return fmt.Errorf("list %s: lock not acquired within %s: %w", path, lockTimeout, domain.ErrLock)
	}
	defer lock.Unlock()

	list, err := read(path)
	if err != nil {
		return err
	}

	if err := mutate(list); err != nil {
		return err
	}

	return write(path, list)
}

// Read returns the list without holding the lock across the call;
// use WithList for any mutation.
func Read(path string) (*List, error) {
	return read(path)
}

func read(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &List{}, nil
		}
		return nil, fmt.Errorf("list %s: read: %w", path, err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("list %s: parse: %w", path, err)
	}
	return &List{Entries: entries}, nil
}

func write(path string, list *List) error {
	entries := list.Entries
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("list %s: marshal: %w", path, err)
	}
	data = append(data, '\n')

	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("list %s: write: %w", path, err)
	}
	return nil
}
