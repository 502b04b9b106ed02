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
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	imagePath   string
	sectorCount uint32
	cacheSize   int
)

var rootCmd = &cobra.Command{
	Use:   "fsutil",
	Short: "Format, check, and browse a pintosfs image",
	Long: `fsutil drives the same buffer cache, free-map, inode, and
directory code the in-process file system uses, against an on-disk image
file instead of a block device.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&imagePath, "image", "fs.img", "path to the file system image")
	rootCmd.PersistentFlags().Uint32Var(&sectorCount, "sectors", 8192, "image size in sectors (mkfs only)")
	rootCmd.PersistentFlags().IntVar(&cacheSize, "cache-size", 64, "buffer cache capacity in sectors")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintln(os.Stderr, "fsutil: binding flags:", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(mkfsCmd, fsckCmd, shellCmd)
}

func initConfig() {
	viper.SetEnvPrefix("FSUTIL")
	viper.AutomaticEnv()

	imagePath = viper.GetString("image")
	sectorCount = viper.GetUint32("sectors")
	cacheSize = viper.GetInt("cache-size")
}
