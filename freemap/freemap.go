// Copyright 2026 The Pintos Filesystem Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package freemap implements the bitmap of free sectors (spec §2, §4.2's
// Allocator). Allocation/release is a pure in-memory bitset operation;
// persisting the bitmap to disk goes through the inode layer like any
// other file, which is what keeps this package from needing to special-
// case its own bootstrap (see Persist/Load).
package freemap

import (
	"sync"

	"github.com/willf/bitset"
)

// Map is a bitmap of free/used sectors, guarded by its own lock (spec §3
// "Globals": "a process-wide free-map lock serializes bitmap mutations").
type Map struct {
	mu   sync.Mutex
	bits *bitset.BitSet
}

// New allocates a Map covering sectorCount sectors, all initially free.
func New(sectorCount uint32) *Map {
	return &Map{bits: bitset.New(uint(sectorCount))}
}

// Allocate reserves and returns the lowest-numbered free sector. ok is
// false if every sector is in use.
func (m *Map) Allocate() (sector uint32, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, found := m.bits.NextClear(0)
	if !found || idx >= m.bits.Len() {
		return 0, false
	}

	m.bits.Set(idx)
	return uint32(idx), true
}

// Release returns sector to the pool of free sectors.
func (m *Map) Release(sector uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bits.Clear(uint(sector))
}

// Reserve marks sector as permanently in use without going through
// Allocate. Used during formatting to claim the fixed sectors (free-map
// inode, root directory inode) before any inode exists to track them.
func (m *Map) Reserve(sector uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bits.Set(uint(sector))
}

// Count returns the number of sectors currently marked in use. Testable
// property 4 (deferred delete) and property 3 (resize rollback) both
// assert that this returns to a baseline value after certain operations.
func (m *Map) Count() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint32(m.bits.Count())
}

// Len returns the total number of sectors the map covers.
func (m *Map) Len() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint32(m.bits.Len())
}
