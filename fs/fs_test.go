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

package fs_test

import (
	"context"
	"testing"

	. "github.com/jacobsa/ogletest"

	"github.com/pintosfs/filesys/cache"
	"github.com/pintosfs/filesys/device"
	"github.com/pintosfs/filesys/fs"
	"github.com/pintosfs/filesys/inode"
)

func TestFS(t *testing.T) { RunTests(t) }

type FSTest struct {
	dev  *device.MemoryDevice
	fsys *fs.FileSystem
}

func init() { RegisterTestSuite(&FSTest{}) }

const fsTestSectors = 2048

func (t *FSTest) SetUp(ti *TestInfo) {
	t.dev = device.NewMemoryDevice(fsTestSectors)
	fsys, ok := fs.Format(t.dev, cache.DefaultSize)
	AssertTrue(ok)
	t.fsys = fsys
}

func (t *FSTest) FormatProducesUsableRoot() {
	root := t.fsys.RootDir()
	defer root.Close()
	ExpectEq(uint32(fs.RootDirSector), root.Inode.Sector())
}

func (t *FSTest) CreateThenOpenSurvivesShutdownAndReload() {
	root := t.fsys.RootDir()
	AssertTrue(t.fsys.Create(context.Background(), root, "/hello.txt", 0))
	root.Close()

	AssertEq(nil, t.fsys.Shutdown())

	reloaded, err := fs.Load(t.dev, cache.DefaultSize)
	AssertEq(nil, err)

	root2 := reloaded.RootDir()
	defer root2.Close()

	in, ok := root2.Lookup("hello.txt")
	AssertTrue(ok)
	ExpectEq(inode.FileType, in.Type())
	in.Close()
}

func (t *FSTest) RemoveUnlinksAndReleasesOnClose() {
	root := t.fsys.RootDir()
	defer root.Close()

	ctx := context.Background()
	baseline := t.fsys.FreeMap.Count()
	AssertTrue(t.fsys.Create(ctx, root, "/x", 0))
	AssertTrue(t.fsys.Remove(ctx, root, "/x"))

	_, ok := root.Lookup("x")
	ExpectFalse(ok)

	// Remove held the only opener, so its close released the inode's sector.
	ExpectEq(baseline, t.fsys.FreeMap.Count())
}

func (t *FSTest) MkdirCreatesNestedEmptyDirectory() {
	root := t.fsys.RootDir()
	defer root.Close()

	ctx := context.Background()
	AssertTrue(t.fsys.Mkdir(ctx, root, "/sub"))

	in, ok := root.Lookup("sub")
	AssertTrue(ok)
	ExpectEq(inode.DirectoryType, in.Type())
	in.Close()
}

func (t *FSTest) CreateRejectsDuplicateName() {
	root := t.fsys.RootDir()
	defer root.Close()

	ctx := context.Background()
	AssertTrue(t.fsys.Create(ctx, root, "/dup", 0))
	ExpectFalse(t.fsys.Create(ctx, root, "/dup", 0))
}
