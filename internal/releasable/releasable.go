// Package releasable tracks sensitive resources that must be wiped and released before
// the operation that created them returns.
package releasable

import (
	"fmt"
	"runtime/debug"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// ItemKind identifies the kind of tracked items.
type ItemKind string

type perKindTracker struct {
	mu sync.Mutex

	// +checklocks:mu
	items map[any]string
}

func (s *perKindTracker) addItem(item any, stack string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[item] = stack
}

func (s *perKindTracker) removeItem(item any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, item)
}

func (s *perKindTracker) active() map[any]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := map[any]string{}
	for k, v := range s.items {
		res[k] = v
	}

	return res
}

//nolint:gochecknoglobals
var (
	perKindMutex sync.Mutex

	// +checklocks:perKindMutex
	perKindTrackers = map[ItemKind]*perKindTracker{}
)

func trackerFor(kind ItemKind) *perKindTracker {
	perKindMutex.Lock()
	defer perKindMutex.Unlock()

	return perKindTrackers[kind]
}

// EnableTracking enables tracking of the given item kind. Items created before
// tracking was enabled are not reported.
func EnableTracking(kind ItemKind) {
	perKindMutex.Lock()
	defer perKindMutex.Unlock()

	if perKindTrackers[kind] != nil {
		return
	}

	perKindTrackers[kind] = &perKindTracker{
		items: map[any]string{},
	}
}

// DisableTracking disables tracking of the given item kind and forgets all tracked items.
func DisableTracking(kind ItemKind) {
	perKindMutex.Lock()
	defer perKindMutex.Unlock()

	delete(perKindTrackers, kind)
}

// Created records that the given item has been allocated.
func Created(kind ItemKind, item any) {
	t := trackerFor(kind)
	if t == nil {
		return
	}

	t.addItem(item, string(debug.Stack()))
}

// Released records that the given item has been wiped and released.
func Released(kind ItemKind, item any) {
	t := trackerFor(kind)
	if t == nil {
		return
	}

	t.removeItem(item)
}

// Active returns the map of all tracked kinds and the stacks of their unreleased items.
func Active() map[ItemKind]map[any]string {
	perKindMutex.Lock()
	defer perKindMutex.Unlock()

	res := map[ItemKind]map[any]string{}

	for kind, t := range perKindTrackers {
		res[kind] = t.active()
	}

	return res
}

// Verify returns an error if any tracked item has not been released.
func Verify() error {
	var (
		kinds []string
		msgs  []string
	)

	active := Active()

	for kind := range active {
		kinds = append(kinds, string(kind))
	}

	sort.Strings(kinds)

	for _, kind := range kinds {
		items := active[ItemKind(kind)]
		if len(items) == 0 {
			continue
		}

		msg := fmt.Sprintf("found %v %q resources that have not been released", len(items), kind)

		for _, stack := range items {
			msg += "\n  - " + strings.ReplaceAll(stack, "\n", "\n    ")
		}

		msgs = append(msgs, msg)
	}

	if len(msgs) == 0 {
		return nil
	}

	return errors.New(strings.Join(msgs, "\n"))
}
