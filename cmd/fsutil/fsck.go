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

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pintosfs/filesys/device"
	"github.com/pintosfs/filesys/directory"
	"github.com/pintosfs/filesys/fs"
	"github.com/pintosfs/filesys/inode"
)

var fsckCmd = &cobra.Command{
	Use:   "fsck",
	Short: "Walk the directory tree checking '.' / '..' consistency",
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, err := device.OpenFileDevice(imagePath)
		if err != nil {
			return err
		}

		filesystem, err := fs.Load(dev, cacheSize)
		if err != nil {
			dev.Close()
			return err
		}

		var problems []string
		visited := make(map[uint32]bool)

		var walk func(dirSector, parentSector uint32)
		walk = func(dirSector, parentSector uint32) {
			if visited[dirSector] {
				return
			}
			visited[dirSector] = true

			d := directory.Reopen(filesystem.Table, dirSector)
			defer d.Close()

			if dot, ok := d.Lookup("."); !ok || dot.Sector() != dirSector {
				problems = append(problems, fmt.Sprintf("sector %d: \".\" does not point to itself", dirSector))
				if ok {
					dot.Close()
				}
			} else {
				dot.Close()
			}

			if dotdot, ok := d.Lookup(".."); !ok || dotdot.Sector() != parentSector {
				problems = append(problems, fmt.Sprintf("sector %d: \"..\" does not point to parent %d", dirSector, parentSector))
				if ok {
					dotdot.Close()
				}
			} else {
				dotdot.Close()
			}

			var pos uint32
			for {
				name, sector, next, found := d.ReadDirAt(pos)
				if !found {
					break
				}
				pos = next
				if name == "." || name == ".." {
					continue
				}

				in := filesystem.Table.Open(sector)
				if in.Type() == inode.DirectoryType {
					walk(sector, dirSector)
				}
				in.Close()
			}
		}
		walk(fs.RootDirSector, fs.RootDirSector)

		fmt.Printf("visited %d directories\n", len(visited))
		fmt.Printf("free-map: %d/%d sectors in use\n", filesystem.FreeMap.Count(), filesystem.FreeMap.Len())
		for _, p := range problems {
			fmt.Println("error:", p)
		}

		if err := filesystem.Shutdown(); err != nil {
			dev.Close()
			return err
		}
		if err := dev.Close(); err != nil {
			return err
		}

		if len(problems) > 0 {
			return fmt.Errorf("fsck: %d inconsistencies found", len(problems))
		}
		return nil
	},
}
