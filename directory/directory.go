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

// Package directory implements directory inode content: fixed-size
// (name, sector, in_use) entries including the mandatory "." and ".."
// entries, and the dir_lookup/dir_add/dir_remove/dir_readdir/dir_create
// operations of spec §4.3.
package directory

import (
	"github.com/pintosfs/filesys/cache"
	"github.com/pintosfs/filesys/device"
	"github.com/pintosfs/filesys/inode"
)

// NameMax is the maximum length of one path component (spec §6).
const NameMax = 14

// entrySize is the packed on-disk size of one directory entry:
// 4-byte sector + (NameMax+1)-byte name + 1-byte in_use flag.
const entrySize = 4 + (NameMax + 1) + 1

// Dir is an open directory: an in-memory inode known to hold directory
// content, plus the open table needed to open the inodes its entries name.
type Dir struct {
	Inode *inode.Inode
	table *inode.OpenTable
}

// Open wraps an already-open directory-typed inode.
func Open(in *inode.Inode, table *inode.OpenTable) *Dir {
	return &Dir{Inode: in, table: table}
}

// Reopen returns a Dir sharing the same in-memory inode, with its opener
// count bumped (used for cwd handles and path_dir's walk).
func Reopen(table *inode.OpenTable, sector uint32) *Dir {
	return &Dir{Inode: table.Open(sector), table: table}
}

// Close closes the underlying inode.
func (d *Dir) Close() {
	d.Inode.Close()
}

type rawEntry struct {
	sector uint32
	name   [NameMax + 1]byte
	inUse  bool
}

func encodeEntry(e rawEntry) [entrySize]byte {
	var buf [entrySize]byte
	buf[0] = byte(e.sector)
	buf[1] = byte(e.sector >> 8)
	buf[2] = byte(e.sector >> 16)
	buf[3] = byte(e.sector >> 24)
	copy(buf[4:4+NameMax+1], e.name[:])
	if e.inUse {
		buf[entrySize-1] = 1
	}
	return buf
}

func decodeEntry(buf []byte) rawEntry {
	var e rawEntry
	e.sector = uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
	copy(e.name[:], buf[4:4+NameMax+1])
	e.inUse = buf[entrySize-1] != 0
	return e
}

func nameToBytes(name string) ([NameMax + 1]byte, bool) {
	var out [NameMax + 1]byte
	if len(name) > NameMax {
		return out, false
	}
	copy(out[:], name)
	return out, true
}

func bytesToName(b [NameMax + 1]byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}

func (d *Dir) numEntries() uint32 {
	return d.Inode.Length() / entrySize
}

func (d *Dir) readEntry(i uint32) rawEntry {
	var buf [entrySize]byte
	d.Inode.ReadAt(buf[:], i*entrySize)
	return decodeEntry(buf[:])
}

func (d *Dir) writeEntry(i uint32, e rawEntry) {
	buf := encodeEntry(e)
	d.Inode.WriteAt(buf[:], i*entrySize)
}

// Lookup linearly scans entries for name, opening its inode on a match.
func (d *Dir) Lookup(name string) (in *inode.Inode, ok bool) {
	n := d.numEntries()
	for i := uint32(0); i < n; i++ {
		e := d.readEntry(i)
		if e.inUse && bytesToName(e.name) == name {
			return d.table.Open(e.sector), true
		}
	}
	return nil, false
}

// Add appends a new in-use entry (name, sector). name must be non-empty,
// at most NameMax bytes, and not already present. It reuses a freed slot
// before growing the directory.
func (d *Dir) Add(name string, sector uint32) bool {
	if name == "" {
		return false
	}
	nameBytes, ok := nameToBytes(name)
	if !ok {
		return false
	}

	n := d.numEntries()
	freeSlot := n
	for i := uint32(0); i < n; i++ {
		e := d.readEntry(i)
		if e.inUse {
			if bytesToName(e.name) == name {
				return false
			}
		} else if freeSlot == n {
			freeSlot = i
		}
	}

	d.writeEntry(freeSlot, rawEntry{sector: sector, name: nameBytes, inUse: true})
	return true
}

// Remove marks name's entry unused. The slot may be reused by a later Add.
func (d *Dir) Remove(name string) bool {
	n := d.numEntries()
	for i := uint32(0); i < n; i++ {
		e := d.readEntry(i)
		if e.inUse && bytesToName(e.name) == name {
			e.inUse = false
			d.writeEntry(i, e)
			return true
		}
	}
	return false
}

// ReadDirAt returns the next in-use entry at or after byte position pos,
// along with the position to resume from on the following call. ok is
// false once no further entries remain.
func (d *Dir) ReadDirAt(pos uint32) (name string, sector uint32, nextPos uint32, ok bool) {
	n := d.numEntries()
	for i := pos / entrySize; i < n; i++ {
		e := d.readEntry(i)
		if e.inUse {
			return bytesToName(e.name), e.sector, (i + 1) * entrySize, true
		}
	}
	return "", 0, pos, false
}

// IsEmpty reports whether dir contains nothing but "." and "..".
func (d *Dir) IsEmpty() bool {
	var pos uint32
	for {
		name, _, next, ok := d.ReadDirAt(pos)
		if !ok {
			return true
		}
		if name != "." && name != ".." {
			return false
		}
		pos = next
	}
}

// Create formats a fresh directory inode at sector, seeded with "."
// (pointing to sector) and ".." (pointing to parentSector; the root
// directory passes parentSector == sector). initialEntries sizes the
// directory's initial capacity (spec §6: 16 entries).
func Create(c *cache.Cache, dev device.Device, alloc inode.Allocator, table *inode.OpenTable, sector, parentSector uint32, initialEntries int) bool {
	if !inode.Create(c, dev, alloc, sector, uint32(initialEntries)*entrySize, inode.DirectoryType) {
		return false
	}

	d := Reopen(table, sector)
	defer d.Close()

	if !d.Add(".", sector) {
		return false
	}
	if !d.Add("..", parentSector) {
		return false
	}
	return true
}
