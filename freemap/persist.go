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

package freemap

import (
	"github.com/pkg/errors"

	"github.com/pintosfs/filesys/inode"
)

// Persist serializes the bitmap and writes it through backing, the inode
// that stores the free-map's own content (conventionally sector 0's
// inode). Like any other inode write, this goes through the buffer cache.
func (m *Map) Persist(backing *inode.Inode) error {
	m.mu.Lock()
	data, err := m.bits.MarshalBinary()
	m.mu.Unlock()
	if err != nil {
		return errors.Wrap(err, "freemap: marshal bitmap")
	}

	n := backing.WriteAt(data, 0)
	if int(n) != len(data) {
		return errors.Errorf("freemap: short write persisting bitmap (%d of %d bytes); backing inode too small", n, len(data))
	}
	return nil
}

// Load reads the bitmap back from backing, replacing m's in-memory state.
// size is the number of serialized bytes to read (the caller tracks this,
// typically backing.Length()).
func (m *Map) Load(backing *inode.Inode, size uint32) error {
	data := make([]byte, size)
	n := backing.ReadAt(data, 0)
	if n != size {
		return errors.Errorf("freemap: short read loading bitmap (%d of %d bytes)", n, size)
	}

	bits := m.bits
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := bits.UnmarshalBinary(data); err != nil {
		return errors.Wrap(err, "freemap: unmarshal bitmap")
	}
	m.bits = bits
	return nil
}
