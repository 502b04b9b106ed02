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

// Package fslog is the ambient debug logger shared by the cache, inode,
// and fdtable layers: silent by default, writing to stderr only when
// asked, the same lazy flag-gated discipline the teacher used for FUSE
// debugging.
package fslog

import (
	"flag"
	"io"
	"io/ioutil"
	"log"
	"os"
	"sync"
)

var fEnableDebug = flag.Bool(
	"filesys.debug",
	false,
	"Write filesys debugging messages to stderr.")

var gLogger *log.Logger
var gLoggerOnce sync.Once

func initLogger() {
	// Unlike the stdlib-flag-driven CLI this pattern was grounded on,
	// fsutil parses its flags with cobra/pflag, which never touches the
	// stdlib flag package; -filesys.debug only takes effect for binaries
	// or tests that do call flag.Parse(), and silently defaults to
	// discarding output otherwise.
	var writer io.Writer = ioutil.Discard
	if *fEnableDebug {
		writer = os.Stderr
	}

	const flags = log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile
	gLogger = log.New(writer, "filesys: ", flags)
}

// Logger returns the process-wide debug logger, initializing it from
// -filesys.debug on first use.
func Logger() *log.Logger {
	gLoggerOnce.Do(initLogger)
	return gLogger
}
