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

package inode

import (
	"sync"

	"github.com/pintosfs/filesys/cache"
	"github.com/pintosfs/filesys/device"
	"github.com/pintosfs/filesys/metrics"
)

// OpenTable is the process-wide open-inode set (spec §3 "Globals"):
// opening the same on-disk inode twice returns the same in-memory Inode,
// reference-counted. It replaces the teacher's intrusive list with a plain
// map, guarded by its own lock, matching the pack's map-of-handles idiom
// (e.g. memFS.inodeIndex).
type OpenTable struct {
	mu    sync.Mutex
	open  map[uint32]*Inode // GUARDED_BY(mu)
	cache *cache.Cache
	dev   device.Device
	alloc Allocator
}

// NewOpenTable constructs an empty open-inode set bound to one cache,
// device, and allocator. Per Design Note 9, this must be called once at
// startup; there is no lazy construction on first use.
func NewOpenTable(c *cache.Cache, dev device.Device, alloc Allocator) *OpenTable {
	return &OpenTable{
		open:  make(map[uint32]*Inode),
		cache: c,
		dev:   dev,
		alloc: alloc,
	}
}

// Open returns the in-memory Inode for sector, creating it if this is the
// first opener. Every call increments the returned Inode's opener count.
func (t *OpenTable) Open(sector uint32) *Inode {
	t.mu.Lock()
	if existing, ok := t.open[sector]; ok {
		t.mu.Unlock()
		existing.reopen()
		return existing
	}

	in := &Inode{
		sector:  sector,
		cache:   t.cache,
		dev:     t.dev,
		alloc:   t.alloc,
		table:   t,
		openCnt: 1,
	}
	t.open[sector] = in
	t.mu.Unlock()

	metrics.OpenInodes.Inc()
	return in
}

// forget removes sector from the set once its last opener has closed it.
func (t *OpenTable) forget(sector uint32) {
	t.mu.Lock()
	delete(t.open, sector)
	t.mu.Unlock()
	metrics.OpenInodes.Dec()
}
