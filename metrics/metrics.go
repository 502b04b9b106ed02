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

// Package metrics holds the prometheus instrumentation shared by the
// cache, inode, and fdtable layers. It is deliberately small: a handful of
// counters and gauges that cost nothing under the locks they sit behind.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// CacheHits counts buffer-cache lookups that found an existing entry.
	CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "filesys",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Buffer cache lookups that hit an already-resident sector.",
	})

	// CacheMisses counts buffer-cache lookups that required eviction.
	CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "filesys",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Buffer cache lookups that required filling a new entry.",
	})

	// CacheEvictions counts victim selections that wrote back a dirty entry.
	CacheEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "filesys",
		Subsystem: "cache",
		Name:      "dirty_evictions_total",
		Help:      "Evictions that had to write back a dirty entry first.",
	})

	// CacheFlushes counts explicit flush() calls.
	CacheFlushes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "filesys",
		Subsystem: "cache",
		Name:      "flushes_total",
		Help:      "Number of explicit cache flush operations.",
	})

	// DirtyEntries tracks the current number of dirty cache entries.
	DirtyEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "filesys",
		Subsystem: "cache",
		Name:      "dirty_entries",
		Help:      "Current number of dirty cache entries awaiting write-back.",
	})

	// OpenInodes tracks the current size of the open-inode set.
	OpenInodes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "filesys",
		Subsystem: "inode",
		Name:      "open_total",
		Help:      "Current number of distinct in-memory inodes held open.",
	})

	// PendingDeletes tracks inodes that are removed but still have openers.
	PendingDeletes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "filesys",
		Subsystem: "inode",
		Name:      "pending_delete",
		Help:      "Inodes marked removed but not yet closed by their last opener.",
	})

	// Syscalls counts invocations of each fdtable syscall by name.
	Syscalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "filesys",
		Subsystem: "fdtable",
		Name:      "syscalls_total",
		Help:      "Number of fdtable syscall invocations, labeled by call name.",
	}, []string{"call"})
)

func init() {
	prometheus.MustRegister(
		CacheHits, CacheMisses, CacheEvictions, CacheFlushes, DirtyEntries,
		OpenInodes, PendingDeletes, Syscalls,
	)
}
