// Copyright (c) 2016 Bob Ziuchkovski
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package bxlog

import (
	"sync"
	"sync/atomic"

	"github.com/relaycore/bxlog/bxerr"
)

// Registry is the process-wide directory of named loggers. Reads
// (GetOrCreate, Snapshot) are expected to vastly outnumber writes
// (Register, SetFilters), so the live table is held behind an
// atomically-swapped immutable snapshot: readers never block behind a
// reconfigure, and a returned Snapshot is unaffected by later mutation.
type Registry struct {
	mu   sync.Mutex // serializes writers; readers use snap directly
	snap atomic.Value
}

type registrySnapshot struct {
	loggers map[string]*Logger
	filters FilterSet
}

// DefaultRegistry is the package-level Registry used by NewLogger and
// GetOrCreate. Applications with unusual isolation needs may construct
// their own Registry via NewRegistry instead.
var DefaultRegistry = NewRegistry()

// NewRegistry returns an empty Registry with no filters applied.
func NewRegistry() *Registry {
	r := &Registry{}
	r.snap.Store(&registrySnapshot{loggers: make(map[string]*Logger)})
	return r
}

func (r *Registry) current() *registrySnapshot {
	return r.snap.Load().(*registrySnapshot)
}

func (s *registrySnapshot) clone() *registrySnapshot {
	loggers := make(map[string]*Logger, len(s.loggers))
	for name, l := range s.loggers {
		loggers[name] = l
	}
	return &registrySnapshot{loggers: loggers, filters: s.filters}
}

// Register adds logger to the registry under its own Name(). Register is
// idempotent if the same *Logger is registered twice. Registering a
// different *Logger under a name that's already registered with a
// divergent Level fails with an AlreadyRegistered-flavored BadConfig
// error; registering the identical level is treated as a no-op.
func (r *Registry) Register(l *Logger) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.current()
	if existing, ok := cur.loggers[l.name]; ok {
		if existing == l {
			return nil
		}
		if existing.Level() != l.Level() {
			return bxerr.Newf(bxerr.BadConfig, "logger %q already registered with a different level", l.name)
		}
		return nil
	}

	next := cur.clone()
	next.loggers[l.name] = l
	if level, matched := next.filters.Apply(l.name); matched {
		l.setLevel(level)
	}
	r.snap.Store(next)
	return nil
}

// Unregister removes l from the registry by identity. It's a no-op if l
// isn't currently registered (or a different instance occupies its name).
func (r *Registry) Unregister(l *Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.current()
	if cur.loggers[l.name] != l {
		return
	}
	next := cur.clone()
	delete(next.loggers, l.name)
	r.snap.Store(next)
}

// GetOrCreate returns the logger registered under name, creating and
// registering a new one at LOWEST if none exists yet. A newly created
// logger has the registry's current Filter Set applied immediately.
func (r *Registry) GetOrCreate(name string) *Logger {
	if l, ok := r.current().loggers[name]; ok {
		return l
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.current()
	if l, ok := cur.loggers[name]; ok {
		return l
	}

	l := newLogger(name)
	if level, matched := cur.filters.Apply(name); matched {
		l.setLevel(level)
	}
	next := cur.clone()
	next.loggers[name] = l
	r.snap.Store(next)
	return l
}

// Snapshot returns an immutable copy of the currently registered
// loggers. Subsequent registry mutation never affects a previously
// returned Snapshot.
func (r *Registry) Snapshot() []*Logger {
	cur := r.current()
	out := make([]*Logger, 0, len(cur.loggers))
	for _, l := range cur.loggers {
		out = append(out, l)
	}
	return out
}

// SetFilters atomically replaces the registry-wide Filter Set and
// re-applies it to every currently registered logger.
func (r *Registry) SetFilters(fs FilterSet) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.current()
	next := cur.clone()
	next.filters = fs
	for _, l := range next.loggers {
		if level, matched := fs.Apply(l.name); matched {
			l.setLevel(level)
		}
	}
	r.snap.Store(next)
}
