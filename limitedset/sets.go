// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package limitedset - a fixed size set that forgets its oldest item
package limitedset

import (
	"container/ring"
	"sync"
)

// LimitedSet - remembers up to size distinct strings
type LimitedSet struct {
	sync.Mutex
	size int
	ring *ring.Ring
	hash map[string]*ring.Ring
}

// New - create a set that holds up to n items, n must be positive
func New(n int) *LimitedSet {
	if n < 1 {
		n = 1
	}
	return &LimitedSet{
		size: n,
		ring: ring.New(n),
		hash: make(map[string]*ring.Ring, n),
	}
}

// Add - insert an item, returns false if it was already present
//
// a repeated item is refreshed so it becomes the newest
func (ls *LimitedSet) Add(item string) bool {
	ls.Lock()
	defer ls.Unlock()

	if r, ok := ls.hash[item]; ok {
		// shift the newer items down and put this one in the newest slot
		newest := ls.ring.Prev()
		for r != newest {
			next := r.Next()
			v := next.Value.(string)
			r.Value = v
			ls.hash[v] = r
			r = next
		}
		newest.Value = item
		ls.hash[item] = newest
		return false
	}

	if oldest, ok := ls.ring.Value.(string); ok {
		delete(ls.hash, oldest)
	}
	ls.ring.Value = item
	ls.hash[item] = ls.ring
	ls.ring = ls.ring.Next()
	return true
}

// Exists - check whether an item is remembered
func (ls *LimitedSet) Exists(item string) bool {
	ls.Lock()
	defer ls.Unlock()
	_, ok := ls.hash[item]
	return ok
}

// Len - number of items remembered
func (ls *LimitedSet) Len() int {
	ls.Lock()
	defer ls.Unlock()
	return len(ls.hash)
}
