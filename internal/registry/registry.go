// Package registry holds the in-memory, multi-indexed collection of commands
// used for the duration of a single operation.
package registry

import (
	"fmt"
	"sort"
	"time"

	"github.com/DreamCats/opencommands/internal/command"
)

// Entry is a registered command plus usage bookkeeping.
type Entry struct {
	Command      *command.Command `json:"command"`
	RegisteredAt time.Time        `json:"registered_at"`
	UseCount     int              `json:"use_count"`
	LastUsed     *time.Time       `json:"last_used,omitempty"`
}

// Key returns the entry's identity key.
func (e Entry) Key() string {
	return e.Command.Key()
}

func (e *Entry) snapshot() Entry {
	out := Entry{
		Command:      e.Command.Clone(),
		RegisteredAt: e.RegisteredAt,
		UseCount:     e.UseCount,
	}
	if e.LastUsed != nil {
		t := *e.LastUsed
		out.LastUsed = &t
	}
	return out
}

// DuplicateKeyError is returned when registering a command whose key is taken.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("command already registered: %s", e.Key)
}

// Filters narrows FindAll. Empty fields match everything.
type Filters struct {
	Namespace string
	Tag       string
	Type      string
}

// Registry indexes commands by key, by namespaced alias, and by tag.
// It is not safe for concurrent use.
type Registry struct {
	entries map[string]*Entry
	aliases map[string]string
	tags    map[string]map[string]struct{}
	now     func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source used for RegisteredAt and LastUsed.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// New returns an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*Entry),
		aliases: make(map[string]string),
		tags:    make(map[string]map[string]struct{}),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register inserts a copy of cmd.
func (r *Registry) Register(cmd *command.Command) error {
	if cmd == nil {
		return fmt.Errorf("register: nil command")
	}
	key := cmd.Key()
	if _, exists := r.entries[key]; exists {
		return &DuplicateKeyError{Key: key}
	}

	stored := cmd.Clone()
	r.entries[key] = &Entry{
		Command:      stored,
		RegisteredAt: r.now(),
	}
	if stored.Namespace != "" {
		r.aliases[stored.Namespace+":"+stored.Name] = key
	}
	for _, tag := range stored.Metadata.Tags {
		bucket, ok := r.tags[tag]
		if !ok {
			bucket = make(map[string]struct{})
			r.tags[tag] = bucket
		}
		bucket[key] = struct{}{}
	}
	return nil
}

// Unregister removes the command with key from every index.
// It reports whether anything was removed.
func (r *Registry) Unregister(key string) bool {
	entry, ok := r.entries[key]
	if !ok {
		return false
	}
	delete(r.entries, key)

	cmd := entry.Command
	if cmd.Namespace != "" {
		delete(r.aliases, cmd.Namespace+":"+cmd.Name)
	}
	for _, tag := range cmd.Metadata.Tags {
		bucket := r.tags[tag]
		delete(bucket, key)
		if len(bucket) == 0 {
			delete(r.tags, tag)
		}
	}
	return true
}

// Find resolves key by primary key, then alias, then a unique match on bare
// or full name. Ambiguous fallbacks report not found; use Matches to list them.
func (r *Registry) Find(key string) (Entry, bool) {
	if e := r.lookup(key); e != nil {
		return e.snapshot(), true
	}
	matches := r.fallback(key)
	if len(matches) != 1 {
		return Entry{}, false
	}
	return matches[0].snapshot(), true
}

// Matches returns every entry key could refer to, sorted by key.
func (r *Registry) Matches(key string) []Entry {
	if e := r.lookup(key); e != nil {
		return []Entry{e.snapshot()}
	}
	matches := r.fallback(key)
	out := make([]Entry, 0, len(matches))
	for _, e := range matches {
		out = append(out, e.snapshot())
	}
	sortEntries(out)
	return out
}

func (r *Registry) lookup(key string) *Entry {
	if e, ok := r.entries[key]; ok {
		return e
	}
	if primary, ok := r.aliases[key]; ok {
		if e, ok := r.entries[primary]; ok {
			return e
		}
	}
	return nil
}

func (r *Registry) fallback(key string) []*Entry {
	var matches []*Entry
	for _, e := range r.entries {
		if e.Command.Name == key || e.Command.FullName() == key {
			matches = append(matches, e)
		}
	}
	return matches
}

// FindAll returns snapshots of every entry matching all filters, sorted by key.
func (r *Registry) FindAll(f Filters) []Entry {
	var candidates []*Entry
	if f.Tag != "" {
		for key := range r.tags[f.Tag] {
			candidates = append(candidates, r.entries[key])
		}
	} else {
		for _, e := range r.entries {
			candidates = append(candidates, e)
		}
	}

	out := make([]Entry, 0, len(candidates))
	for _, e := range candidates {
		if f.Namespace != "" && e.Command.Namespace != f.Namespace {
			continue
		}
		if f.Type != "" && e.Command.Type() != f.Type {
			continue
		}
		out = append(out, e.snapshot())
	}
	sortEntries(out)
	return out
}

// All returns every entry sorted by key.
func (r *Registry) All() []Entry {
	return r.FindAll(Filters{})
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	return len(r.entries)
}

// RecordUsage bumps the use count of key. Unknown keys are ignored.
func (r *Registry) RecordUsage(key string) {
	e, ok := r.entries[key]
	if !ok {
		return
	}
	e.UseCount++
	t := r.now()
	e.LastUsed = &t
}

// SeedUsage sets usage counters loaded from persistent history.
func (r *Registry) SeedUsage(key string, count int, lastUsed *time.Time) {
	e, ok := r.entries[key]
	if !ok {
		return
	}
	e.UseCount = count
	if lastUsed != nil {
		t := *lastUsed
		e.LastUsed = &t
	} else {
		e.LastUsed = nil
	}
}

// ListNamespaces returns the distinct non-empty namespaces, sorted.
func (r *Registry) ListNamespaces() []string {
	seen := make(map[string]struct{})
	for _, e := range r.entries {
		if e.Command.Namespace != "" {
			seen[e.Command.Namespace] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// ListTags returns every tag in use, sorted.
func (r *Registry) ListTags() []string {
	out := make([]string, 0, len(r.tags))
	for tag := range r.tags {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Clear drops every entry and index.
func (r *Registry) Clear() {
	clear(r.entries)
	clear(r.aliases)
	clear(r.tags)
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key() < entries[j].Key()
	})
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
