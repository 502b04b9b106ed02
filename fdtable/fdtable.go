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

// Package fdtable implements the per-process file-descriptor table and
// syscall surface of spec §4.4: a fixed 128-slot array over the fs, path,
// directory, and inode layers, with its own fd_lock serializing
// allocation and every syscall body.
package fdtable

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/pintosfs/filesys/directory"
	"github.com/pintosfs/filesys/fs"
	"github.com/pintosfs/filesys/fslog"
	"github.com/pintosfs/filesys/inode"
	"github.com/pintosfs/filesys/metrics"
	"github.com/pintosfs/filesys/path"
)

const (
	StdinFd  = 0
	StdoutFd = 1
	StderrFd = 2

	// MaxOpen is the fixed table size (spec §4.4).
	MaxOpen = 128
)

// handle is a tagged File(file_handle)/Directory(dir_handle) slot.
type handle struct {
	inode *inode.Inode   // non-nil for a file handle
	dir   *directory.Dir // non-nil for a directory handle
	pos   uint32         // byte position (files) or iteration cursor (directories)
}

func (h *handle) isDir() bool { return h.dir != nil }

// Table is one process's FD table. Stdin/Stdout/Stderr default to the
// process's own standard streams but can be swapped for testing.
type Table struct {
	mu    sync.Mutex
	fs    *fs.FileSystem
	cwd   *directory.Dir
	files [MaxOpen]*handle

	openCnt int
	nextFd  int

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// New constructs a table rooted at cwd (nil means the file system root).
// The table takes ownership of cwd: Chdir closes the cwd it replaces, and
// Close closes the current one.
func New(filesystem *fs.FileSystem, cwd *directory.Dir) *Table {
	if cwd == nil {
		cwd = filesystem.RootDir()
	}
	return &Table{
		fs:      filesystem,
		cwd:     cwd,
		openCnt: 3, // slots 0-2 reserved, spec §4.4
		nextFd:  StderrFd + 1,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Close releases the table's cwd handle and every still-open slot
// (mirrors close_all plus releasing the cwd this table owns).
func (t *Table) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for fd := StderrFd + 1; fd < MaxOpen; fd++ {
		t.closeSlotLocked(fd)
	}
	t.cwd.Close()
}

func (t *Table) isReserved(fd int) bool {
	return fd == StdinFd || fd == StdoutFd || fd == StderrFd
}

// isOpenFd reports whether fd names an occupied non-reserved slot.
func (t *Table) isOpenFd(fd int) bool {
	return fd >= 0 && fd < MaxOpen && !t.isReserved(fd) && t.files[fd] != nil
}

// Create implements sys_create.
func (t *Table) Create(pathStr string, initialSize uint32) bool {
	metrics.Syscalls.WithLabelValues("create").Inc()
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fs.Create(context.Background(), t.cwd, pathStr, initialSize)
}

// Remove implements sys_remove: files are unlinked unconditionally;
// directories only if empty, not the root, and not the calling thread's cwd.
func (t *Table) Remove(pathStr string) bool {
	metrics.Syscalls.WithLabelValues("remove").Inc()
	t.mu.Lock()
	defer t.mu.Unlock()

	ctx := context.Background()
	in, ok := t.fs.Resolver.Inode(ctx, t.cwd, pathStr)
	if !ok {
		return false
	}

	switch in.Type() {
	case inode.FileType:
		in.Close()
		return t.fs.Remove(ctx, t.cwd, pathStr)

	case inode.DirectoryType:
		dir := directory.Open(in, t.fs.Table)
		result := path.IsEmptyDir(dir)
		if in.Sector() == fs.RootDirSector {
			result = false
		}
		if t.cwd != nil && t.cwd.Inode.Sector() == in.Sector() {
			result = false
		}
		dir.Close()
		if result {
			result = t.fs.Remove(ctx, t.cwd, pathStr)
		}
		return result

	default:
		in.Close()
		return false
	}
}

// Open implements sys_open: resolves pathStr and installs a File or
// Directory handle in the next free non-reserved slot at or after the
// rotating allocation hint (see allocSlotLocked). Returns -1 if the
// table is full, the name is empty, or resolution fails.
func (t *Table) Open(pathStr string) int {
	metrics.Syscalls.WithLabelValues("open").Inc()
	if pathStr == "" {
		return -1
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.openCnt >= MaxOpen {
		return -1
	}

	in, ok := t.fs.Resolver.Inode(context.Background(), t.cwd, pathStr)
	if !ok {
		return -1
	}

	h := &handle{}
	switch in.Type() {
	case inode.FileType:
		h.inode = in
	case inode.DirectoryType:
		h.dir = directory.Open(in, t.fs.Table)
	default:
		in.Close()
		return -1
	}

	fd := t.allocSlotLocked()
	t.files[fd] = h
	t.openCnt++
	fslog.Logger().Printf("opened fd %d -> %q", fd, pathStr)
	return fd
}

// allocSlotLocked finds the next free slot starting from nextFd, wrapping
// around and skipping the reserved range, per spec §4.4.
func (t *Table) allocSlotLocked() int {
	fd := t.nextFd
	for t.files[fd] != nil {
		fd = (fd + 1) % MaxOpen
		if fd <= StderrFd {
			fd = StderrFd + 1
		}
	}
	t.nextFd = fd
	return fd
}

// IsDir implements sys_isdir.
func (t *Table) IsDir(fd int) bool {
	metrics.Syscalls.WithLabelValues("isdir").Inc()
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.isOpenFd(fd) {
		return false
	}
	return t.files[fd].isDir()
}

// Read implements sys_read. stdin polls Stdin for n bytes; a file reads
// from its current position and advances it; directories and
// stdout/stderr are invalid reads (-1).
func (t *Table) Read(fd int, buf []byte) int {
	metrics.Syscalls.WithLabelValues("read").Inc()
	t.mu.Lock()
	defer t.mu.Unlock()

	if fd == StdinFd {
		n, _ := io.ReadFull(t.Stdin, buf)
		return n
	}
	if fd == StdoutFd || fd == StderrFd || !t.isOpenFd(fd) {
		return -1
	}

	h := t.files[fd]
	if h.isDir() {
		return -1
	}

	n := h.inode.ReadAt(buf, h.pos)
	h.pos += n
	return int(n)
}

// Write implements sys_write. stdout/stderr write straight through;
// a file writes at its current position and advances it; directories and
// stdin are invalid writes (-1).
func (t *Table) Write(fd int, buf []byte) int {
	metrics.Syscalls.WithLabelValues("write").Inc()
	t.mu.Lock()
	defer t.mu.Unlock()

	if fd == StdinFd {
		return -1
	}
	if fd == StdoutFd || fd == StderrFd {
		w := t.Stdout
		if fd == StderrFd {
			w = t.Stderr
		}
		n, _ := w.Write(buf)
		return n
	}
	if !t.isOpenFd(fd) {
		return -1
	}

	h := t.files[fd]
	if h.isDir() {
		return -1
	}

	n := h.inode.WriteAt(buf, h.pos)
	h.pos += n
	return int(n)
}

// Seek implements sys_seek. Reserved and directory FDs are caller errors
// in the original syscall surface; here they are simply no-ops.
func (t *Table) Seek(fd int, position uint32) {
	metrics.Syscalls.WithLabelValues("seek").Inc()
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.isOpenFd(fd) || t.files[fd].isDir() {
		return
	}
	t.files[fd].pos = position
}

// Tell implements sys_tell.
func (t *Table) Tell(fd int) uint32 {
	metrics.Syscalls.WithLabelValues("tell").Inc()
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.isOpenFd(fd) || t.files[fd].isDir() {
		return 0
	}
	return t.files[fd].pos
}

// Filesize implements sys_filesize.
func (t *Table) Filesize(fd int) int {
	metrics.Syscalls.WithLabelValues("filesize").Inc()
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.isOpenFd(fd) || t.files[fd].isDir() {
		return -1
	}
	return int(t.files[fd].inode.Length())
}

// CloseFd implements sys_close on a single fd (not to be confused with the
// Table's own Close, which tears down the whole table at process exit).
func (t *Table) CloseFd(fd int) {
	metrics.Syscalls.WithLabelValues("close").Inc()
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.isOpenFd(fd) {
		return
	}
	t.closeSlotLocked(fd)
}

func (t *Table) closeSlotLocked(fd int) {
	h := t.files[fd]
	if h == nil {
		return
	}
	if h.isDir() {
		h.dir.Close()
	} else {
		h.inode.Close()
	}
	t.files[fd] = nil
	t.openCnt--
}

// Chdir implements sys_chdir: path must resolve to a directory, which
// replaces the table's current working directory.
func (t *Table) Chdir(pathStr string) bool {
	metrics.Syscalls.WithLabelValues("chdir").Inc()
	t.mu.Lock()
	defer t.mu.Unlock()

	in, ok := t.fs.Resolver.Inode(context.Background(), t.cwd, pathStr)
	if !ok {
		return false
	}
	if in.Type() != inode.DirectoryType {
		in.Close()
		return false
	}

	t.cwd.Close()
	t.cwd = directory.Open(in, t.fs.Table)
	return true
}

// Mkdir implements sys_mkdir.
func (t *Table) Mkdir(pathStr string) bool {
	metrics.Syscalls.WithLabelValues("mkdir").Inc()
	t.mu.Lock()
	defer t.mu.Unlock()
	if pathStr == "" {
		return false
	}
	return t.fs.Mkdir(context.Background(), t.cwd, pathStr)
}

// Readdir implements sys_readdir: advances fd's cursor to the next entry
// that is not "." or "..", writing its name. ok is false once no such
// entry remains.
func (t *Table) Readdir(fd int) (name string, ok bool) {
	metrics.Syscalls.WithLabelValues("readdir").Inc()
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.isOpenFd(fd) || !t.files[fd].isDir() {
		return "", false
	}

	h := t.files[fd]
	for {
		entryName, _, next, found := h.dir.ReadDirAt(h.pos)
		if !found {
			return "", false
		}
		h.pos = next
		if entryName != "." && entryName != ".." {
			return entryName, true
		}
	}
}

// Inumber implements sys_inumber.
func (t *Table) Inumber(fd int) int {
	metrics.Syscalls.WithLabelValues("inumber").Inc()
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.isOpenFd(fd) {
		return -1
	}
	h := t.files[fd]
	if h.isDir() {
		return int(h.dir.Inode.Sector())
	}
	return int(h.inode.Sector())
}
