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
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pintosfs/filesys/device"
	"github.com/pintosfs/filesys/fdtable"
	"github.com/pintosfs/filesys/fs"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Open an interactive shell against a mounted image",
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

		table := fdtable.New(filesystem, nil)
		defer func() {
			table.Close()
			filesystem.Shutdown()
			dev.Sync()
			dev.Close()
		}()

		scanner := bufio.NewScanner(os.Stdin)
		fmt.Print("fsutil> ")
		for scanner.Scan() {
			runShellLine(table, strings.TrimSpace(scanner.Text()))
			fmt.Print("fsutil> ")
		}
		return scanner.Err()
	},
}

func runShellLine(table *fdtable.Table, line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "ls":
		target := "."
		if len(fields) > 1 {
			target = fields[1]
		}
		fd := table.Open(target)
		if fd < 0 || !table.IsDir(fd) {
			fmt.Println("ls: not a directory")
			return
		}
		for {
			name, ok := table.Readdir(fd)
			if !ok {
				break
			}
			fmt.Println(name)
		}
		table.CloseFd(fd)

	case "cd":
		if len(fields) < 2 || !table.Chdir(fields[1]) {
			fmt.Println("cd: failed")
		}

	case "mkdir":
		if len(fields) < 2 || !table.Mkdir(fields[1]) {
			fmt.Println("mkdir: failed")
		}

	case "create":
		if len(fields) < 2 {
			fmt.Println("usage: create <path> [initial-size]")
			return
		}
		var size uint64
		if len(fields) > 2 {
			size, _ = strconv.ParseUint(fields[2], 10, 32)
		}
		if !table.Create(fields[1], uint32(size)) {
			fmt.Println("create: failed")
		}

	case "rm":
		if len(fields) < 2 || !table.Remove(fields[1]) {
			fmt.Println("rm: failed")
		}

	case "cat":
		if len(fields) < 2 {
			fmt.Println("usage: cat <path>")
			return
		}
		fd := table.Open(fields[1])
		if fd < 0 || table.IsDir(fd) {
			fmt.Println("cat: failed")
			return
		}
		buf := make([]byte, 512)
		for {
			n := table.Read(fd, buf)
			if n <= 0 {
				break
			}
			os.Stdout.Write(buf[:n])
		}
		fmt.Println()
		table.CloseFd(fd)

	case "write":
		if len(fields) < 3 {
			fmt.Println("usage: write <path> <text...>")
			return
		}
		fd := table.Open(fields[1])
		if fd < 0 || table.IsDir(fd) {
			fmt.Println("write: failed")
			return
		}
		text := strings.Join(fields[2:], " ")
		table.Write(fd, []byte(text))
		table.CloseFd(fd)

	case "exit", "quit":
		os.Exit(0)

	default:
		fmt.Println("unknown command:", fields[0])
	}
}
