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

import (
	"os"

	"github.com/pkg/errors"
)

// FileDevice is a Device backed by a regular file on the host file system.
// It is what cmd/fsutil mounts: a flat file of sectorCount*SectorSize
// bytes, pre-sized with Truncate at creation time.
type FileDevice struct {
	f           *os.File
	sectorCount uint32
}

// OpenFileDevice opens an existing backing file. The file's size must be an
// exact multiple of SectorSize.
func OpenFileDevice(path string) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrap(err, "open backing file")
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "stat backing file")
	}

	if info.Size()%SectorSize != 0 {
		f.Close()
		return nil, errors.Errorf("backing file size %d is not a multiple of sector size %d", info.Size(), SectorSize)
	}

	return &FileDevice{f: f, sectorCount: uint32(info.Size() / SectorSize)}, nil
}

// CreateFileDevice creates a new backing file of the given sector count,
// zero-filled.
func CreateFileDevice(path string, sectorCount uint32) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "create backing file")
	}

	if err := f.Truncate(int64(sectorCount) * SectorSize); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "truncate backing file")
	}

	return &FileDevice{f: f, sectorCount: sectorCount}, nil
}

func (d *FileDevice) ReadSector(sector uint32, dst []byte) error {
	if sector >= d.sectorCount {
		return &OutOfRangeError{Sector: sector, Count: d.sectorCount}
	}
	_, err := d.f.ReadAt(dst[:SectorSize], int64(sector)*SectorSize)
	return errors.Wrap(err, "read sector")
}

func (d *FileDevice) WriteSector(sector uint32, src []byte) error {
	if sector >= d.sectorCount {
		return &OutOfRangeError{Sector: sector, Count: d.sectorCount}
	}
	_, err := d.f.WriteAt(src[:SectorSize], int64(sector)*SectorSize)
	return errors.Wrap(err, "write sector")
}

func (d *FileDevice) SectorCount() uint32 {
	return d.sectorCount
}

// Sync flushes the underlying file to stable storage.
func (d *FileDevice) Sync() error {
	return errors.Wrap(d.f.Sync(), "sync backing file")
}

// Close releases the backing file descriptor.
func (d *FileDevice) Close() error {
	return errors.Wrap(d.f.Close(), "close backing file")
}
