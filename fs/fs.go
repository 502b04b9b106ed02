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

// Package fs wires the cache, free-map, inode, directory, and path layers
// into one mountable file system and exposes the filesys_create/
// filesys_remove operations that the fdtable syscalls build on (spec §4.4
// table references these as the underlying primitives behind create/
// remove).
package fs

import (
	"context"

	"github.com/pintosfs/filesys/cache"
	"github.com/pintosfs/filesys/device"
	"github.com/pintosfs/filesys/directory"
	"github.com/pintosfs/filesys/freemap"
	"github.com/pintosfs/filesys/inode"
	"github.com/pintosfs/filesys/path"
)

// Fixed sector assignments, spec §6: "Sector 0 = free-map inode; sector 1
// = root directory inode."
const (
	FreeMapSector = 0
	RootDirSector = 1
)

// FileSystem is the mounted, ready-to-use file system core.
type FileSystem struct {
	Device   device.Device
	Cache    *cache.Cache
	FreeMap  *freemap.Map
	Table    *inode.OpenTable
	Resolver *path.Resolver

	freeMapInode *inode.Inode
}

// Format initializes a fresh file system on dev: a free-map covering every
// sector, a root directory at RootDirSector, and the free-map's own
// content persisted to FreeMapSector. cacheSize is normally
// cache.DefaultSize (64); tests use smaller values.
func Format(dev device.Device, cacheSize int) (*FileSystem, bool) {
	c := cache.New(cacheSize)
	fm := freemap.New(dev.SectorCount())
	fm.Reserve(FreeMapSector)
	fm.Reserve(RootDirSector)

	table := inode.NewOpenTable(c, dev, fm)

	if !inode.Create(c, dev, fm, FreeMapSector, 0, inode.FileType) {
		return nil, false
	}
	if !directory.Create(c, dev, fm, table, RootDirSector, RootDirSector, 16) {
		return nil, false
	}

	freeMapInode := table.Open(FreeMapSector)
	if err := fm.Persist(freeMapInode); err != nil {
		return nil, false
	}

	return &FileSystem{
		Device:       dev,
		Cache:        c,
		FreeMap:      fm,
		Table:        table,
		Resolver:     path.NewResolver(table, RootDirSector),
		freeMapInode: freeMapInode,
	}, true
}

// Load mounts a previously formatted device.
func Load(dev device.Device, cacheSize int) (*FileSystem, error) {
	c := cache.New(cacheSize)
	fm := freemap.New(dev.SectorCount())
	table := inode.NewOpenTable(c, dev, fm)

	freeMapInode := table.Open(FreeMapSector)
	if err := fm.Load(freeMapInode, freeMapInode.Length()); err != nil {
		return nil, err
	}

	return &FileSystem{
		Device:       dev,
		Cache:        c,
		FreeMap:      fm,
		Table:        table,
		Resolver:     path.NewResolver(table, RootDirSector),
		freeMapInode: freeMapInode,
	}, nil
}

// Shutdown persists the free-map and flushes the cache. Spec §6: "A single
// call flushes the cache; no other on-disk finalization is required" —
// persisting the free-map's own content is folded into that one call
// since it, too, goes through the cache.
func (fs *FileSystem) Shutdown() error {
	if err := fs.FreeMap.Persist(fs.freeMapInode); err != nil {
		return err
	}
	fs.Cache.Flush()
	return nil
}

// RootDir opens the root directory. Callers must Close the result.
func (fs *FileSystem) RootDir() *directory.Dir {
	return directory.Reopen(fs.Table, RootDirSector)
}

// Create implements filesys_create: resolve pathStr's parent directory,
// allocate a sector, format a file inode of initialSize bytes there, and link it
// into the parent under its basename.
func (fs *FileSystem) Create(ctx context.Context, cwd *directory.Dir, pathStr string, initialSize uint32) bool {
	basename, ok := path.Basename(pathStr)
	if !ok || basename == "" {
		return false
	}

	dir, ok := fs.Resolver.Dir(ctx, cwd, pathStr)
	if !ok {
		return false
	}
	defer dir.Close()

	sector, ok := fs.FreeMap.Allocate()
	if !ok {
		return false
	}

	success := inode.Create(fs.Cache, fs.Device, fs.FreeMap, sector, initialSize, inode.FileType) &&
		dir.Add(basename, sector)
	if !success {
		fs.FreeMap.Release(sector)
	}
	return success
}

// Remove implements filesys_remove: unlink pathStr's basename from its
// parent directory and mark the inode removed (deferred delete handles
// the rest at last close). Policy decisions (directory emptiness, cwd,
// root protection) are the caller's (fdtable's) responsibility; this is
// the unconditional unlink primitive.
func (fs *FileSystem) Remove(ctx context.Context, cwd *directory.Dir, pathStr string) bool {
	basename, ok := path.Basename(pathStr)
	if !ok || basename == "" {
		return false
	}

	dir, ok := fs.Resolver.Dir(ctx, cwd, pathStr)
	if !ok {
		return false
	}
	defer dir.Close()

	in, found := dir.Lookup(basename)
	if !found {
		return false
	}
	defer in.Close()

	if !dir.Remove(basename) {
		return false
	}
	in.Remove()
	return true
}

// Mkdir implements the sys_mkdir primitive: allocate a sector, format a
// directory inode seeded with "." and "..", and link it into the parent.
// On any failure after allocation, the sector is released.
func (fs *FileSystem) Mkdir(ctx context.Context, cwd *directory.Dir, pathStr string) bool {
	basename, ok := path.Basename(pathStr)
	if !ok || basename == "" {
		return false
	}

	parent, ok := fs.Resolver.Dir(ctx, cwd, pathStr)
	if !ok {
		return false
	}
	defer parent.Close()

	sector, ok := fs.FreeMap.Allocate()
	if !ok {
		return false
	}

	parentSector := parent.Inode.Sector()
	success := directory.Create(fs.Cache, fs.Device, fs.FreeMap, fs.Table, sector, parentSector, 16) &&
		parent.Add(basename, sector)
	if !success {
		fs.FreeMap.Release(sector)
	}
	return success
}
