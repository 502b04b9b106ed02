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
	"encoding/binary"

	"github.com/pintosfs/filesys/device"
)

// Tunables from spec §6.
const (
	NumDirect           = 12
	PointersPerBlock    = device.SectorSize / 4 // 128 4-byte LE sector numbers per block
	NumIndirect         = PointersPerBlock
	NumDoublyIndirect   = PointersPerBlock * PointersPerBlock
	MaxFileSize         = (NumDirect + NumIndirect + NumDoublyIndirect) * device.SectorSize
	onDiskMagic  uint32 = 0x494e4f44 // "INOD"
)

// Type distinguishes a regular file inode from a directory inode.
type Type uint8

const (
	FileType Type = iota
	DirectoryType
)

// onDisk is the exact 512-byte on-disk inode layout (spec §3, §6):
//
//	length(4) magic(4) direct[12](48) indirect(4) doublyIndirect(4) type(1) pad(...)
type onDisk struct {
	length         uint32
	magic          uint32
	direct         [NumDirect]uint32
	indirect       uint32
	doublyIndirect uint32
	typ            Type
}

// encode renders d into exactly one device.SectorSize buffer, zero-padded.
func (d *onDisk) encode() [device.SectorSize]byte {
	var buf [device.SectorSize]byte
	off := 0
	binary.LittleEndian.PutUint32(buf[off:], d.length)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], d.magic)
	off += 4
	for _, p := range d.direct {
		binary.LittleEndian.PutUint32(buf[off:], p)
		off += 4
	}
	binary.LittleEndian.PutUint32(buf[off:], d.indirect)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], d.doublyIndirect)
	off += 4
	buf[off] = byte(d.typ)
	// The remainder of buf is already zero (Go zero-values a new array).
	return buf
}

// decodeOnDisk parses an on-disk inode out of a sector-sized buffer. It panics on
// a magic mismatch, per spec §7 ("magic mismatch on inode load" is an
// invariant violation).
func decodeOnDisk(buf []byte) *onDisk {
	d := &onDisk{}
	off := 0
	d.length = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	d.magic = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	if d.magic != onDiskMagic {
		panic("inode: magic mismatch on load; corrupt or uninitialized sector")
	}
	for i := range d.direct {
		d.direct[i] = binary.LittleEndian.Uint32(buf[off:])
		off += 4
	}
	d.indirect = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	d.doublyIndirect = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	d.typ = Type(buf[off])
	return d
}

// decodePointerBlock parses 128 little-endian sector numbers out of a
// sector-sized buffer (an indirect or doubly-indirect block).
func decodePointerBlock(buf []byte) (out [PointersPerBlock]uint32) {
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}
	return
}

// encodePointerBlock renders 128 sector numbers into a sector-sized buffer.
func encodePointerBlock(ptrs [PointersPerBlock]uint32) [device.SectorSize]byte {
	var buf [device.SectorSize]byte
	for i, p := range ptrs {
		binary.LittleEndian.PutUint32(buf[i*4:], p)
	}
	return buf
}
