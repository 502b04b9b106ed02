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

package device_test

import (
	"testing"

	. "github.com/jacobsa/oglematchers"
	. "github.com/jacobsa/ogletest"

	"github.com/pintosfs/filesys/device"
)

func TestDevice(t *testing.T) { RunTests(t) }

type MemoryDeviceTest struct {
	dev *device.MemoryDevice
}

func init() { RegisterTestSuite(&MemoryDeviceTest{}) }

func (t *MemoryDeviceTest) SetUp(ti *TestInfo) {
	t.dev = device.NewMemoryDevice(4)
}

func (t *MemoryDeviceTest) WriteThenReadRoundTrips() {
	var src [device.SectorSize]byte
	for i := range src {
		src[i] = byte(i)
	}

	AssertEq(nil, t.dev.WriteSector(2, src[:]))

	var dst [device.SectorSize]byte
	AssertEq(nil, t.dev.ReadSector(2, dst[:]))
	ExpectTrue(src == dst)
}

func (t *MemoryDeviceTest) SectorsStartZeroed() {
	var dst [device.SectorSize]byte
	for i := range dst {
		dst[i] = 0xff
	}
	AssertEq(nil, t.dev.ReadSector(0, dst[:]))

	var zero [device.SectorSize]byte
	ExpectTrue(dst == zero)
}

func (t *MemoryDeviceTest) OutOfRangeReadFails() {
	var dst [device.SectorSize]byte
	err := t.dev.ReadSector(4, dst[:])
	AssertNe(nil, err)
	ExpectThat(err.Error(), HasSubstr("out of range"))
}

func (t *MemoryDeviceTest) OutOfRangeWriteFails() {
	var src [device.SectorSize]byte
	err := t.dev.WriteSector(100, src[:])
	AssertNe(nil, err)
}

func (t *MemoryDeviceTest) SectorCountMatchesConstruction() {
	ExpectEq(4, t.dev.SectorCount())
}
