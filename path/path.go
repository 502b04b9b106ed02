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

// Package path implements the tokenizer and path-to-inode/directory
// resolution described in spec §4.3. It knows nothing about file
// descriptors; fdtable supplies the caller's current working directory.
package path

import (
	"context"

	"github.com/pintosfs/filesys/directory"
	"github.com/pintosfs/filesys/inode"
	"github.com/pintosfs/filesys/tracing"
)

// getNextPart skips leading '/'s and returns the next up-to-NameMax-byte
// component of src along with the unconsumed remainder. end is true at
// end of string (no component returned); tooLong is true when a component
// exceeds directory.NameMax bytes.
func getNextPart(src string) (part, rest string, end bool, tooLong bool) {
	i := 0
	for i < len(src) && src[i] == '/' {
		i++
	}
	if i == len(src) {
		return "", src[i:], true, false
	}

	j := i
	for j < len(src) && src[j] != '/' {
		j++
	}
	if j-i > directory.NameMax {
		return "", src[j:], false, true
	}
	return src[i:j], src[j:], false, false
}

// isLastPart reports whether rest contains no further non-empty
// component, i.e. whether the part most recently extracted was the final
// one (the basename).
func isLastPart(rest string) bool {
	_, _, end, _ := getNextPart(rest)
	return end
}

// Basename returns the final component of path, or ("", false) if a
// component exceeds directory.NameMax. An all-slashes or empty path
// yields ("", true).
func Basename(path string) (string, bool) {
	var last string
	rest := path
	for {
		part, next, end, tooLong := getNextPart(rest)
		if tooLong {
			return "", false
		}
		if end {
			return last, true
		}
		last = part
		rest = next
	}
}

// Resolver ties path resolution to a concrete open-inode table and root
// directory sector.
type Resolver struct {
	table *inode.OpenTable
	root  uint32
}

// NewResolver constructs a Resolver. root is the root directory's sector
// (spec §6: sector 1).
func NewResolver(table *inode.OpenTable, root uint32) *Resolver {
	return &Resolver{table: table, root: root}
}

// Dir returns the parent directory of path's basename: the root if path
// is empty, absolute, or cwd is nil; otherwise a reopened cwd. Callers
// must Close the result. ok is false if any intermediate component fails
// to resolve, is too long, or is not a directory.
func (r *Resolver) Dir(ctx context.Context, cwd *directory.Dir, path string) (dir *directory.Dir, ok bool) {
	_, done := tracing.Span(ctx, "path.Dir")
	defer func() { done(nil) }()

	if _, ok := Basename(path); !ok {
		return nil, false
	}

	if cwd == nil || path == "" || path[0] == '/' {
		dir = directory.Reopen(r.table, r.root)
	} else {
		dir = directory.Reopen(r.table, cwd.Inode.Sector())
	}

	rest := path
	for {
		part, next, end, tooLong := getNextPart(rest)
		if tooLong {
			dir.Close()
			return nil, false
		}
		if end {
			return dir, true
		}
		if isLastPart(next) {
			return dir, true
		}

		in, found := dir.Lookup(part)
		if !found {
			dir.Close()
			return nil, false
		}
		if in.Type() != inode.DirectoryType {
			in.Close()
			dir.Close()
			return nil, false
		}

		next_ := directory.Open(in, r.table)
		dir.Close()
		dir = next_
		rest = next
	}
}

// Inode resolves path to its inode: the basename looked up inside
// Dir(path), or Dir(path)'s own inode reopened when path names a
// directory directly (empty basename). Callers must Close the result.
func (r *Resolver) Inode(ctx context.Context, cwd *directory.Dir, path string) (*inode.Inode, bool) {
	spanCtx, done := tracing.Span(ctx, "path.Inode")
	defer func() { done(nil) }()

	basename, ok := Basename(path)
	if !ok {
		return nil, false
	}

	dir, ok := r.Dir(spanCtx, cwd, path)
	if !ok {
		return nil, false
	}
	defer dir.Close()

	if basename == "" {
		return r.table.Open(dir.Inode.Sector()), true
	}

	return dir.Lookup(basename)
}

// IsEmptyDir reports whether dir contains only "." and "..".
func IsEmptyDir(dir *directory.Dir) bool {
	return dir.IsEmpty()
}
