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

package fdtable_test

import (
	"bytes"
	"strconv"
	"testing"

	. "github.com/jacobsa/ogletest"

	"github.com/pintosfs/filesys/cache"
	"github.com/pintosfs/filesys/device"
	"github.com/pintosfs/filesys/fdtable"
	"github.com/pintosfs/filesys/fs"
)

func TestFDTable(t *testing.T) { RunTests(t) }

type FDTableTest struct {
	fsys  *fs.FileSystem
	table *fdtable.Table
}

func init() { RegisterTestSuite(&FDTableTest{}) }

func (t *FDTableTest) SetUp(ti *TestInfo) {
	dev := device.NewMemoryDevice(2048)
	fsys, ok := fs.Format(dev, cache.DefaultSize)
	AssertTrue(ok)
	t.fsys = fsys
	t.table = fdtable.New(fsys, nil)
}

func (t *FDTableTest) CreateOpenWriteReadSeek() {
	AssertTrue(t.table.Create("/a.txt", 0))

	fd := t.table.Open("/a.txt")
	AssertTrue(fd >= 3)

	n := t.table.Write(fd, []byte("hello"))
	ExpectEq(5, n)
	ExpectEq(uint32(5), t.table.Tell(fd))

	t.table.Seek(fd, 0)
	buf := make([]byte, 5)
	n = t.table.Read(fd, buf)
	ExpectEq(5, n)
	ExpectEq("hello", string(buf))
	ExpectEq(5, t.table.Filesize(fd))

	t.table.CloseFd(fd)
	ExpectFalse(t.table.IsDir(fd))
}

func (t *FDTableTest) OpenMissingFileFails() {
	fd := t.table.Open("/missing")
	ExpectEq(-1, fd)
}

func (t *FDTableTest) OpenEmptyNameFails() {
	ExpectEq(-1, t.table.Open(""))
}

func (t *FDTableTest) DirectoryFDRejectsReadWrite() {
	AssertTrue(t.table.Mkdir("/d"))
	fd := t.table.Open("/d")
	AssertTrue(fd >= 3)
	ExpectTrue(t.table.IsDir(fd))

	ExpectEq(-1, t.table.Read(fd, make([]byte, 1)))
	ExpectEq(-1, t.table.Write(fd, []byte("x")))
}

func (t *FDTableTest) ReaddirSkipsDotEntries() {
	AssertTrue(t.table.Mkdir("/d"))
	AssertTrue(t.table.Create("/d/f1", 0))
	AssertTrue(t.table.Create("/d/f2", 0))

	fd := t.table.Open("/d")
	AssertTrue(fd >= 3)

	seen := map[string]bool{}
	for {
		name, ok := t.table.Readdir(fd)
		if !ok {
			break
		}
		seen[name] = true
	}

	ExpectFalse(seen["."])
	ExpectFalse(seen[".."])
	ExpectTrue(seen["f1"])
	ExpectTrue(seen["f2"])
}

func (t *FDTableTest) ChdirChangesRelativeResolution() {
	AssertTrue(t.table.Mkdir("/d"))
	AssertTrue(t.table.Chdir("/d"))
	AssertTrue(t.table.Create("rel.txt", 0))

	fd := t.table.Open("/d/rel.txt")
	ExpectTrue(fd >= 3)
}

func (t *FDTableTest) RemoveRootDirectoryFails() {
	ExpectFalse(t.table.Remove("/"))
}

func (t *FDTableTest) RemoveNonEmptyDirectoryFails() {
	AssertTrue(t.table.Mkdir("/d"))
	AssertTrue(t.table.Create("/d/f", 0))
	ExpectFalse(t.table.Remove("/d"))
}

func (t *FDTableTest) RemoveEmptyDirectorySucceeds() {
	AssertTrue(t.table.Mkdir("/d"))
	ExpectTrue(t.table.Remove("/d"))
}

func (t *FDTableTest) RemoveCurrentWorkingDirectoryFails() {
	AssertTrue(t.table.Mkdir("/d"))
	AssertTrue(t.table.Chdir("/d"))
	ExpectFalse(t.table.Remove("/d"))
}

func (t *FDTableTest) StdoutWriteGoesToInjectedWriter() {
	var buf bytes.Buffer
	t.table.Stdout = &buf
	n := t.table.Write(fdtable.StdoutFd, []byte("hi"))
	ExpectEq(2, n)
	ExpectEq("hi", buf.String())
}

func (t *FDTableTest) StdinReadComesFromInjectedReader() {
	t.table.Stdin = bytes.NewBufferString("abc")
	buf := make([]byte, 3)
	n := t.table.Read(fdtable.StdinFd, buf)
	ExpectEq(3, n)
	ExpectEq("abc", string(buf))
}

func (t *FDTableTest) TableFullRejectsFurtherOpens() {
	AssertTrue(t.table.Mkdir("/d"))
	for i := 0; i < fdtable.MaxOpen-3; i++ {
		name := "/d/f" + strconv.Itoa(i)
		AssertTrue(t.table.Create(name, 0))
		fd := t.table.Open(name)
		AssertTrue(fd >= 3)
	}
	ExpectEq(-1, t.table.Open("/d"))
}
