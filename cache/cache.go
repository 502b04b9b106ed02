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

// Package cache implements the fixed-size, write-back sector cache in
// front of a device.Device (spec §4.1). It is the sole client of the
// device: every other layer reaches the device only through a *Cache.
package cache

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/pintosfs/filesys/device"
	"github.com/pintosfs/filesys/fslog"
	"github.com/pintosfs/filesys/metrics"
)

// DefaultSize is N from the spec's tunables table.
const DefaultSize = 64

// key identifies a cache entry by the device it belongs to and the sector
// number on that device. Two entries for different devices may share a
// sector number without colliding.
type key struct {
	dev    device.Device
	sector uint32
}

// entry is one fixed sector-sized slot. Fields are GUARDED_BY the owning
// Cache's mu; there is no per-entry lock (spec: "Exactly one lock, held
// for the entire duration of a cache operation").
type entry struct {
	key         key
	buffer      [device.SectorSize]byte
	dirty       bool
	free        bool
	lastTouched uint64
}

// Cache is a fixed N-entry write-back cache keyed by (device, sector). The
// zero value is not usable; construct with New.
type Cache struct {
	mu      sync.Mutex
	entries []*entry // GUARDED_BY(mu)
	tick    uint64   // monotonic counter; see Design Note 9 (no wall clock)
}

// New allocates a Cache with size entries, all initially free. size is
// normally cache.DefaultSize (N=64); tests use smaller sizes to exercise
// eviction cheaply.
func New(size int) *Cache {
	c := &Cache{entries: make([]*entry, size)}
	for i := range c.entries {
		c.entries[i] = &entry{free: true, lastTouched: c.nextTick()}
	}
	return c
}

func (c *Cache) nextTick() uint64 {
	return atomic.AddUint64(&c.tick, 1)
}

// lookup returns the entry for (dev, sector) if resident. Must be called
// with mu held.
func (c *Cache) lookup(k key) *entry {
	for _, e := range c.entries {
		if !e.free && e.key == k {
			return e
		}
	}
	return nil
}

// evict picks the entry with the minimum lastTouched, writes it back if
// dirty, and returns it ready for reuse. Must be called with mu held.
func (c *Cache) evict() *entry {
	victim := c.entries[0]
	for _, e := range c.entries[1:] {
		if e.lastTouched < victim.lastTouched {
			victim = e
		}
	}

	if !victim.free && victim.dirty {
		metrics.CacheEvictions.Inc()
		fslog.Logger().Printf("evicting dirty sector %d", victim.key.sector)
		if err := victim.key.dev.WriteSector(victim.key.sector, victim.buffer[:]); err != nil {
			panic(errors.Wrap(err, "cache: write back dirty victim"))
		}
		metrics.DirtyEntries.Dec()
	}

	victim.free = true
	victim.dirty = false
	return victim
}

// fill loads sector from dev into a (possibly just-evicted) entry and
// relabels it. Must be called with mu held.
func (c *Cache) fill(dev device.Device, sector uint32) *entry {
	e := c.evict()
	e.key = key{dev: dev, sector: sector}
	e.free = false
	if err := dev.ReadSector(sector, e.buffer[:]); err != nil {
		panic(errors.Wrap(err, "cache: fill from device"))
	}
	e.lastTouched = c.nextTick()
	metrics.CacheMisses.Inc()
	return e
}

// Read copies the full sector into dst, which must have length
// device.SectorSize.
func (c *Cache) Read(dev device.Device, sector uint32, dst []byte) {
	c.ReadOffset(dev, sector, dst, 0, device.SectorSize)
}

// ReadOffset copies chunk bytes starting at ofs within the sector into
// dst[:chunk]. Requires ofs+chunk <= device.SectorSize.
func (c *Cache) ReadOffset(dev device.Device, sector uint32, dst []byte, ofs, chunk int) {
	if ofs+chunk > device.SectorSize {
		panic(errors.Errorf("cache: read offset %d + chunk %d exceeds sector size", ofs, chunk))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	k := key{dev: dev, sector: sector}
	e := c.lookup(k)
	if e != nil {
		metrics.CacheHits.Inc()
	} else {
		e = c.fill(dev, sector)
	}

	copy(dst[:chunk], e.buffer[ofs:ofs+chunk])
	e.lastTouched = c.nextTick()
}

// Write overwrites the full sector with src, which must have length
// device.SectorSize. A full-sector write skips the read-before-write: the
// entire sector is replaced.
func (c *Cache) Write(dev device.Device, sector uint32, src []byte) {
	c.WriteOffset(dev, sector, src, 0, device.SectorSize)
}

// WriteOffset overwrites chunk bytes starting at ofs within the sector
// with src[:chunk]. A partial write (ofs != 0 or chunk < SectorSize) reads
// the sector first so the untouched bytes survive.
func (c *Cache) WriteOffset(dev device.Device, sector uint32, src []byte, ofs, chunk int) {
	if ofs+chunk > device.SectorSize {
		panic(errors.Errorf("cache: write offset %d + chunk %d exceeds sector size", ofs, chunk))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	k := key{dev: dev, sector: sector}
	e := c.lookup(k)
	full := ofs == 0 && chunk == device.SectorSize

	if e != nil {
		metrics.CacheHits.Inc()
	} else if full {
		// Full-sector write: no need to read the old contents first.
		e = c.evict()
		e.key = k
		e.free = false
		metrics.CacheMisses.Inc()
	} else {
		// Partial write on a cold sector: must read before write so the
		// untouched bytes are preserved.
		e = c.fill(dev, sector)
	}

	copy(e.buffer[ofs:ofs+chunk], src[:chunk])
	e.lastTouched = c.nextTick()

	if full {
		// Eager write-back discipline for full-sector writes (spec §4.1:
		// "the recorded behavior flushes eagerly on full-sector writes").
		if err := dev.WriteSector(sector, e.buffer[:]); err != nil {
			panic(errors.Wrap(err, "cache: eager write-back"))
		}
		if e.dirty {
			e.dirty = false
			metrics.DirtyEntries.Dec()
		}
		return
	}

	// Partial writes are deferred (write-back): mark dirty and return.
	if !e.dirty {
		e.dirty = true
		metrics.DirtyEntries.Inc()
	}
}

// Flush writes every dirty entry back to its device. The cache remains
// populated afterward.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	metrics.CacheFlushes.Inc()
	for _, e := range c.entries {
		if !e.free && e.dirty {
			if err := e.key.dev.WriteSector(e.key.sector, e.buffer[:]); err != nil {
				panic(errors.Wrap(err, "cache: flush"))
			}
			e.dirty = false
			metrics.DirtyEntries.Dec()
		}
	}
}

// Free releases the cache's entries. Callers must Flush first if they want
// dirty data preserved; Free does not flush.
func (c *Cache) Free() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
}
