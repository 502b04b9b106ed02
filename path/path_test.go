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

package path_test

import (
	"context"
	"strings"
	"testing"

	. "github.com/jacobsa/ogletest"

	"github.com/pintosfs/filesys/cache"
	"github.com/pintosfs/filesys/device"
	"github.com/pintosfs/filesys/fs"
	"github.com/pintosfs/filesys/path"
)

func TestPath(t *testing.T) { RunTests(t) }

////////////////////////////////////////////////////////////////////////
// Basename
////////////////////////////////////////////////////////////////////////

type BasenameTest struct{}

func init() { RegisterTestSuite(&BasenameTest{}) }

func (t *BasenameTest) SimpleAbsolutePath() {
	name, ok := path.Basename("/a/b/c")
	AssertTrue(ok)
	ExpectEq("c", name)
}

func (t *BasenameTest) RootIsEmptyBasename() {
	name, ok := path.Basename("/")
	AssertTrue(ok)
	ExpectEq("", name)
}

func (t *BasenameTest) RelativePath() {
	name, ok := path.Basename("a/b")
	AssertTrue(ok)
	ExpectEq("b", name)
}

func (t *BasenameTest) TrailingSlashesIgnored() {
	name, ok := path.Basename("/a/b///")
	AssertTrue(ok)
	ExpectEq("b", name)
}

func (t *BasenameTest) ComponentTooLongFails() {
	_, ok := path.Basename("/" + strings.Repeat("x", 15))
	ExpectFalse(ok)
}

////////////////////////////////////////////////////////////////////////
// Resolver
////////////////////////////////////////////////////////////////////////

type ResolverTest struct {
	fsys *fs.FileSystem
}

func init() { RegisterTestSuite(&ResolverTest{}) }

func (t *ResolverTest) SetUp(ti *TestInfo) {
	dev := device.NewMemoryDevice(1024)
	fsys, ok := fs.Format(dev, cache.DefaultSize)
	AssertTrue(ok)
	t.fsys = fsys
}

func (t *ResolverTest) ResolvesNestedDirectory() {
	root := t.fsys.RootDir()
	defer root.Close()

	AssertTrue(t.fsys.Mkdir(context.Background(), root, "/d"))

	in, ok := t.fsys.Resolver.Inode(context.Background(), root, "/d")
	AssertTrue(ok)
	defer in.Close()

	dir, ok := t.fsys.Resolver.Dir(context.Background(), root, "/d/e")
	AssertTrue(ok)
	ExpectEq(in.Sector(), dir.Inode.Sector())
	dir.Close()
}

func (t *ResolverTest) MissingIntermediateComponentFails() {
	root := t.fsys.RootDir()
	defer root.Close()

	_, ok := t.fsys.Resolver.Dir(context.Background(), root, "/nope/e")
	ExpectFalse(ok)
}

func (t *ResolverTest) NonDirectoryIntermediateComponentFails() {
	root := t.fsys.RootDir()
	defer root.Close()

	AssertTrue(t.fsys.Create(context.Background(), root, "/f", 0))
	_, ok := t.fsys.Resolver.Dir(context.Background(), root, "/f/g")
	ExpectFalse(ok)
}

func (t *ResolverTest) IsEmptyDirTrueForFreshRoot() {
	root := t.fsys.RootDir()
	defer root.Close()
	ExpectTrue(path.IsEmptyDir(root))
}
