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

// Package inode implements the on-disk inode format, its extent-tree
// addressing and resize algorithm, and the in-memory open-inode table with
// reference counting and deferred delete (spec §4.2).
package inode

import (
	"sync"

	"github.com/pintosfs/filesys/cache"
	"github.com/pintosfs/filesys/device"
	"github.com/pintosfs/filesys/fslog"
	"github.com/pintosfs/filesys/metrics"
)

// Inode is the in-memory representation of an open on-disk inode, shared
// by every opener of the same sector (spec §3 "In-memory inode").
type Inode struct {
	sector uint32
	cache  *cache.Cache
	dev    device.Device
	alloc  Allocator
	table  *OpenTable

	rwMu sync.Mutex // serializes ReadAt/WriteAt against each other

	resizeMu     sync.Mutex // GUARDED_BY: openCnt, removed, denyWriteCnt, resize, type/length reads
	openCnt      int
	removed      bool
	denyWriteCnt int
}

// Create allocates a zeroed on-disk inode at sector, stamps its magic and
// type, resizes it to length, and writes it back. It does not open the
// inode (matches spec: inode_create is independent of inode_open).
func Create(c *cache.Cache, dev device.Device, alloc Allocator, sector uint32, length uint32, typ Type) bool {
	d := &onDisk{magic: onDiskMagic, typ: typ}
	if !resize(c, dev, alloc, d, length) {
		return false
	}

	buf := d.encode()
	c.Write(dev, sector, buf[:])
	return true
}

// loadDisk reads and decodes the on-disk inode for in.
func (in *Inode) loadDisk() *onDisk {
	var buf [device.SectorSize]byte
	in.cache.Read(in.dev, in.sector, buf[:])
	return decodeOnDisk(buf[:])
}

// Sector returns the on-disk sector this inode occupies (get_inumber).
func (in *Inode) Sector() uint32 {
	in.resizeMu.Lock()
	defer in.resizeMu.Unlock()
	return in.sector
}

// Length returns the current byte length of the inode's data.
func (in *Inode) Length() uint32 {
	in.resizeMu.Lock()
	defer in.resizeMu.Unlock()
	return in.loadDisk().length
}

// Type returns whether the inode is a file or a directory.
func (in *Inode) Type() Type {
	in.resizeMu.Lock()
	defer in.resizeMu.Unlock()
	return in.loadDisk().typ
}

// OpenCount reports the current number of openers, for diagnostics and
// tests only.
func (in *Inode) OpenCount() int {
	in.resizeMu.Lock()
	defer in.resizeMu.Unlock()
	return in.openCnt
}

// DenyWrite disables writes to in. May be called at most once per opener.
func (in *Inode) DenyWrite() {
	in.resizeMu.Lock()
	defer in.resizeMu.Unlock()
	in.denyWriteCnt++
	if in.denyWriteCnt > in.openCnt {
		panic("inode: deny_write_cnt exceeded open_cnt")
	}
}

// AllowWrite re-enables writes previously disabled by DenyWrite. Must be
// called once per matching DenyWrite before the opener closes the inode.
func (in *Inode) AllowWrite() {
	in.resizeMu.Lock()
	defer in.resizeMu.Unlock()
	if in.denyWriteCnt <= 0 {
		panic("inode: allow_write without matching deny_write")
	}
	in.denyWriteCnt--
}

// Remove marks in for deletion. Its blocks are freed only when the last
// opener closes it (deferred delete, spec §4.2 and testable property 4).
func (in *Inode) Remove() {
	in.resizeMu.Lock()
	defer in.resizeMu.Unlock()
	in.removed = true
	metrics.PendingDeletes.Inc()
}

// reopen increments the opener count; used by OpenTable when handing out
// an already-open inode.
func (in *Inode) reopen() {
	in.resizeMu.Lock()
	defer in.resizeMu.Unlock()
	in.openCnt++
}

// Close decrements the opener count. When it reaches zero, the inode is
// removed from its OpenTable and, if marked removed, its data sectors and
// its own sector are released to the free-map.
func (in *Inode) Close() {
	in.resizeMu.Lock()
	in.openCnt--
	openCnt := in.openCnt
	removed := in.removed
	in.resizeMu.Unlock()

	if openCnt != 0 {
		return
	}

	in.table.forget(in.sector)

	if removed {
		d := in.loadDisk()
		in.resizeMu.Lock()
		resize(in.cache, in.dev, in.alloc, d, 0)
		in.resizeMu.Unlock()

		buf := d.encode()
		in.cache.Write(in.dev, in.sector, buf[:])

		in.alloc.Release(in.sector)
		metrics.PendingDeletes.Dec()
		fslog.Logger().Printf("released sector %d of removed inode", in.sector)
	}
}

// ReadAt reads up to len(buf) bytes starting at offset, returning the
// number of bytes actually read (short of len(buf) at end of file).
func (in *Inode) ReadAt(buf []byte, offset uint32) uint32 {
	in.rwMu.Lock()
	defer in.rwMu.Unlock()

	var total uint32
	size := uint32(len(buf))

	for size > 0 {
		d := in.loadDisk()
		sector, ok := sectorFor(in.cache, in.dev, d, offset)
		if !ok {
			break
		}

		sectorOfs := offset % device.SectorSize
		sectorLeft := device.SectorSize - sectorOfs
		inodeLeft := d.length - offset
		chunk := min32(size, min32(sectorLeft, inodeLeft))
		if chunk <= 0 {
			break
		}

		dst := buf[total : total+chunk]
		if sectorOfs == 0 && chunk == device.SectorSize {
			in.cache.Read(in.dev, sector, dst)
		} else {
			in.cache.ReadOffset(in.dev, sector, dst, int(sectorOfs), int(chunk))
		}

		size -= chunk
		offset += chunk
		total += chunk
	}

	return total
}

// WriteAt writes len(buf) bytes starting at offset, growing the inode
// first if the write extends past the current length. Returns the number
// of bytes actually written (0 if writes are currently denied).
func (in *Inode) WriteAt(buf []byte, offset uint32) uint32 {
	in.resizeMu.Lock()
	denied := in.denyWriteCnt > 0
	in.resizeMu.Unlock()
	if denied {
		return 0
	}

	in.rwMu.Lock()
	defer in.rwMu.Unlock()

	size := uint32(len(buf))
	d := in.loadDisk()

	if offset+size > d.length {
		in.resizeMu.Lock()
		resize(in.cache, in.dev, in.alloc, d, offset+size)
		in.resizeMu.Unlock()

		// Written back regardless of whether resize grew or rolled back;
		// on rollback this just re-persists the inode's prior state.
		buf := d.encode()
		in.cache.Write(in.dev, in.sector, buf[:])
	}

	var total uint32
	for size > 0 {
		sector, ok := sectorFor(in.cache, in.dev, d, offset)
		if !ok {
			break
		}

		sectorOfs := offset % device.SectorSize
		sectorLeft := device.SectorSize - sectorOfs
		inodeLeft := d.length - offset
		chunk := min32(size, min32(sectorLeft, inodeLeft))
		if chunk <= 0 {
			break
		}

		src := buf[total : total+chunk]
		if sectorOfs == 0 && chunk == device.SectorSize {
			in.cache.Write(in.dev, sector, src)
		} else {
			in.cache.WriteOffset(in.dev, sector, src, int(sectorOfs), int(chunk))
		}

		size -= chunk
		offset += chunk
		total += chunk
	}

	return total
}

func min32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
