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
	"github.com/pintosfs/filesys/cache"
	"github.com/pintosfs/filesys/device"
)

// Allocator is the free-map's contract as seen by the inode layer. The
// inode package never imports the free-map implementation directly (that
// would cycle, since the free-map persists itself through an inode); a
// concrete *freemap.Map is handed in by the fs wiring layer and satisfies
// this interface.
type Allocator interface {
	// Allocate reserves and returns one free sector. ok is false if the
	// free-map is exhausted.
	Allocate() (sector uint32, ok bool)
	// Release returns sector to the free-map.
	Release(sector uint32)
}

var zeroSector [device.SectorSize]byte

func writeZeroSector(c *cache.Cache, dev device.Device, sector uint32) {
	c.Write(dev, sector, zeroSector[:])
}

// sectorFor translates a byte offset within an inode of the given length
// to the sector that holds it. ok is false when pos >= length or the slot
// is unallocated (the Open Question in spec §9 is resolved this way: no
// sentinel value to misuse, just a boolean).
func sectorFor(c *cache.Cache, dev device.Device, d *onDisk, pos uint32) (sector uint32, ok bool) {
	if pos >= d.length {
		return 0, false
	}

	switch {
	case pos < NumDirect*device.SectorSize:
		sector = d.direct[pos/device.SectorSize]

	case pos < (NumDirect+NumIndirect)*device.SectorSize:
		if d.indirect == 0 {
			return 0, false
		}
		extra := pos - NumDirect*device.SectorSize
		var buf [device.SectorSize]byte
		c.Read(dev, d.indirect, buf[:])
		block := decodePointerBlock(buf[:])
		sector = block[extra/device.SectorSize]

	case pos < MaxFileSize:
		if d.doublyIndirect == 0 {
			return 0, false
		}
		extra := pos - (NumDirect+NumIndirect)*device.SectorSize
		var outerBuf [device.SectorSize]byte
		c.Read(dev, d.doublyIndirect, outerBuf[:])
		outer := decodePointerBlock(outerBuf[:])
		indirectSector := outer[extra/device.SectorSize/PointersPerBlock]
		if indirectSector == 0 {
			return 0, false
		}
		var innerBuf [device.SectorSize]byte
		c.Read(dev, indirectSector, innerBuf[:])
		inner := decodePointerBlock(innerBuf[:])
		sector = inner[extra/device.SectorSize%PointersPerBlock]

	default:
		return 0, false
	}

	if sector == 0 {
		return 0, false
	}
	return sector, true
}

// resize walks d's extent tree in direct -> indirect -> doubly-indirect
// order, allocating or releasing leaf sectors so that exactly the sectors
// covering [0, length) are allocated, per spec §4.2. On allocation failure
// it rolls back to oldLength (a shrink-only walk, which cannot itself
// fail) and returns false, leaving d's pointers and length as they were
// before the call. On success it sets d.length = length and returns true.
//
// The caller is responsible for writing d back through the cache
// afterward (spec: "The caller writes the disk inode back explicitly").
func resize(c *cache.Cache, dev device.Device, alloc Allocator, d *onDisk, length uint32) bool {
	oldLength := d.length

	if resizeWalk(c, dev, alloc, d, length, true) {
		d.length = length
		return true
	}

	// Roll back: shrink whatever partial growth occurred back to oldLength.
	// This walk only ever releases, so it cannot fail (Design Note 9).
	if !resizeWalk(c, dev, alloc, d, oldLength, false) {
		panic("inode: rollback resize failed; free-map accounting is broken")
	}
	d.length = oldLength
	return false
}

// resizeWalk performs one pass of the grow/shrink algorithm targeting
// length. When allowGrow is false, no allocation is permitted; a grow
// decision in that mode is an invariant violation (it would mean the
// caller asked for a rollback that isn't actually shrink-only) and panics.
func resizeWalk(c *cache.Cache, dev device.Device, alloc Allocator, d *onDisk, length uint32, allowGrow bool) bool {
	// Direct pointers.
	for i := 0; i < NumDirect; i++ {
		pos := uint32(i) * device.SectorSize
		if !growOrShrink(c, dev, alloc, &d.direct[i], pos, length, allowGrow) {
			return false
		}
	}

	if d.indirect == 0 && length <= NumDirect*device.SectorSize {
		return true
	}

	indirectBlock, ok := loadOrAllocBlock(c, dev, alloc, &d.indirect, allowGrow)
	if !ok {
		return false
	}
	for i := 0; i < PointersPerBlock; i++ {
		pos := (NumDirect + i) * device.SectorSize
		if !growOrShrink(c, dev, alloc, &indirectBlock[i], uint32(pos), length, allowGrow) {
			buf := encodePointerBlock(indirectBlock)
			c.Write(dev, d.indirect, buf[:])
			return false
		}
	}

	if d.indirect != 0 && length <= NumDirect*device.SectorSize {
		alloc.Release(d.indirect)
		d.indirect = 0
	} else {
		buf := encodePointerBlock(indirectBlock)
		c.Write(dev, d.indirect, buf[:])
	}

	if d.doublyIndirect == 0 && length <= (NumDirect+NumIndirect)*device.SectorSize {
		return true
	}

	outerBlock, ok := loadOrAllocBlock(c, dev, alloc, &d.doublyIndirect, allowGrow)
	if !ok {
		return false
	}

	for i := 0; i < PointersPerBlock; i++ {
		basePos := (NumDirect + NumIndirect + PointersPerBlock*i) * device.SectorSize
		if outerBlock[i] == 0 && length <= uint32(basePos) {
			break
		}

		innerBlock, ok := loadOrAllocBlock(c, dev, alloc, &outerBlock[i], allowGrow)
		if !ok {
			outerBuf := encodePointerBlock(outerBlock)
			c.Write(dev, d.doublyIndirect, outerBuf[:])
			return false
		}

		for j := 0; j < PointersPerBlock; j++ {
			pos := (NumDirect + NumIndirect + PointersPerBlock*i + j) * device.SectorSize
			if !growOrShrink(c, dev, alloc, &innerBlock[j], uint32(pos), length, allowGrow) {
				innerBuf := encodePointerBlock(innerBlock)
				c.Write(dev, outerBlock[i], innerBuf[:])
				outerBuf := encodePointerBlock(outerBlock)
				c.Write(dev, d.doublyIndirect, outerBuf[:])
				return false
			}
		}

		if outerBlock[i] != 0 && length <= uint32(basePos) {
			alloc.Release(outerBlock[i])
			outerBlock[i] = 0
		} else {
			buf := encodePointerBlock(innerBlock)
			c.Write(dev, outerBlock[i], buf[:])
		}
	}

	if d.doublyIndirect != 0 && length <= (NumDirect+NumIndirect)*device.SectorSize {
		alloc.Release(d.doublyIndirect)
		d.doublyIndirect = 0
	} else {
		buf := encodePointerBlock(outerBlock)
		c.Write(dev, d.doublyIndirect, buf[:])
	}

	return true
}

// growOrShrink applies the single-slot grow/shrink rule to *ptr, a leaf
// sector pointer logically positioned at pos.
func growOrShrink(c *cache.Cache, dev device.Device, alloc Allocator, ptr *uint32, pos, length uint32, allowGrow bool) bool {
	if length <= pos && *ptr != 0 {
		alloc.Release(*ptr)
		*ptr = 0
		return true
	}
	if length > pos && *ptr == 0 {
		if !allowGrow {
			panic("inode: rollback walk attempted to grow; invariant violated")
		}
		sector, ok := alloc.Allocate()
		if !ok {
			return false
		}
		writeZeroSector(c, dev, sector)
		*ptr = sector
	}
	return true
}

// loadOrAllocBlock returns the 128-pointer block referenced by *ptr,
// allocating and zero-initializing a new one if *ptr is currently 0 and
// growth is permitted.
func loadOrAllocBlock(c *cache.Cache, dev device.Device, alloc Allocator, ptr *uint32, allowGrow bool) (block [PointersPerBlock]uint32, ok bool) {
	if *ptr == 0 {
		if !allowGrow {
			panic("inode: rollback walk attempted to allocate a pointer block; invariant violated")
		}
		sector, allocated := alloc.Allocate()
		if !allocated {
			return block, false
		}
		writeZeroSector(c, dev, sector)
		*ptr = sector
		return block, true // block is already zero
	}

	var buf [device.SectorSize]byte
	c.Read(dev, *ptr, buf[:])
	return decodePointerBlock(buf[:]), true
}
