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
	"github.com/pintosfs/filesys/fs"
)

var mkfsCmd = &cobra.Command{
	Use:   "mkfs",
	Short: "Create a new, empty file system image",
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, err := device.CreateFileDevice(imagePath, sectorCount)
		if err != nil {
			return err
		}
		defer dev.Close()

		filesystem, ok := fs.Format(dev, cacheSize)
		if !ok {
			return fmt.Errorf("mkfs: formatting %s failed", imagePath)
		}
		if err := filesystem.Shutdown(); err != nil {
			return err
		}
		if err := dev.Sync(); err != nil {
			return err
		}

		fmt.Printf("formatted %s: %d sectors, root directory at sector %d\n", imagePath, sectorCount, fs.RootDirSector)
		return nil
	},
}
