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

package cache_test

import (
	"testing"

	. "github.com/jacobsa/ogletest"

	"github.com/pintosfs/filesys/cache"
	"github.com/pintosfs/filesys/device"
)

func TestCache(t *testing.T) { RunTests(t) }

type CacheTest struct {
	dev *device.MemoryDevice
	c   *cache.Cache
}

func init() { RegisterTestSuite(&CacheTest{}) }

func (t *CacheTest) SetUp(ti *TestInfo) {
	t.dev = device.NewMemoryDevice(16)
	t.c = cache.New(2)
}

func (t *CacheTest) ReadMissesGoToDevice() {
	var src [device.SectorSize]byte
	src[0] = 7
	AssertEq(nil, t.dev.WriteSector(3, src[:]))

	var dst [device.SectorSize]byte
	t.c.Read(t.dev, 3, dst[:])
	ExpectEq(byte(7), dst[0])
}

func (t *CacheTest) WriteThenReadIsTransparent() {
	var src [device.SectorSize]byte
	src[0] = 42
	t.c.Write(t.dev, 5, src[:])

	var dst [device.SectorSize]byte
	t.c.Read(t.dev, 5, dst[:])
	ExpectEq(byte(42), dst[0])
}

func (t *CacheTest) FullSectorWriteIsEagerlyWrittenBack() {
	var src [device.SectorSize]byte
	src[0] = 9
	t.c.Write(t.dev, 1, src[:])

	// Even without Flush, the device must already see the write, since
	// full-sector writes are written back eagerly.
	var onDisk [device.SectorSize]byte
	AssertEq(nil, t.dev.ReadSector(1, onDisk[:]))
	ExpectEq(byte(9), onDisk[0])
}

func (t *CacheTest) PartialWriteIsDeferredUntilFlush() {
	// First populate the sector with a full-sector write so it's resident
	// and not dirty, then perform a partial write.
	var full [device.SectorSize]byte
	t.c.Write(t.dev, 1, full[:])

	patch := []byte{0xaa}
	t.c.WriteOffset(t.dev, 1, patch, 10, 1)

	// The device copy must not yet reflect the partial write.
	var onDisk [device.SectorSize]byte
	AssertEq(nil, t.dev.ReadSector(1, onDisk[:]))
	ExpectEq(byte(0), onDisk[10])

	t.c.Flush()
	AssertEq(nil, t.dev.ReadSector(1, onDisk[:]))
	ExpectEq(byte(0xaa), onDisk[10])
}

func (t *CacheTest) EvictionWritesBackDirtyVictim() {
	// Cache holds only 2 entries. Dirty sector 1 with a partial write, then
	// touch two more sectors to force it out.
	var full [device.SectorSize]byte
	t.c.Write(t.dev, 1, full[:])
	t.c.WriteOffset(t.dev, 1, []byte{0x55}, 0, 1)

	var buf [device.SectorSize]byte
	t.c.Read(t.dev, 2, buf[:])
	t.c.Read(t.dev, 3, buf[:])
	t.c.Read(t.dev, 4, buf[:])

	var onDisk [device.SectorSize]byte
	AssertEq(nil, t.dev.ReadSector(1, onDisk[:]))
	ExpectEq(byte(0x55), onDisk[0])
}

func (t *CacheTest) CapacityNeverExceedsConfiguredSize() {
	var buf [device.SectorSize]byte
	for s := uint32(0); s < 16; s++ {
		t.c.Read(t.dev, s, buf[:])
	}
	// No direct introspection of entry count is exposed; the property this
	// asserts is that reading far more distinct sectors than the cache's
	// capacity never panics or corrupts unrelated sectors.
	t.c.Read(t.dev, 0, buf[:])
	ExpectEq(byte(0), buf[0])
}
