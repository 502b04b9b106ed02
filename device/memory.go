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

package device

// MemoryDevice is an in-memory Device backed by a flat byte slice. It is
// the device used by the package's tests and by the fuzz-driven property
// tests in fs/, where spinning up a real file is unnecessary overhead.
type MemoryDevice struct {
	sectors [][SectorSize]byte
}

// NewMemoryDevice allocates a zeroed device with the given sector count.
func NewMemoryDevice(sectorCount uint32) *MemoryDevice {
	return &MemoryDevice{sectors: make([][SectorSize]byte, sectorCount)}
}

func (d *MemoryDevice) ReadSector(sector uint32, dst []byte) error {
	if sector >= uint32(len(d.sectors)) {
		return &OutOfRangeError{Sector: sector, Count: uint32(len(d.sectors))}
	}
	copy(dst, d.sectors[sector][:])
	return nil
}

func (d *MemoryDevice) WriteSector(sector uint32, src []byte) error {
	if sector >= uint32(len(d.sectors)) {
		return &OutOfRangeError{Sector: sector, Count: uint32(len(d.sectors))}
	}
	copy(d.sectors[sector][:], src)
	return nil
}

func (d *MemoryDevice) SectorCount() uint32 {
	return uint32(len(d.sectors))
}
