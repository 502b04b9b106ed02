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

// Package tracing wraps github.com/jacobsa/reqtrace with the one shape the
// file system core needs: start a span for a path-resolution call
// (path.Resolver's Dir and Inode), report its outcome when done. It adds nothing reqtrace doesn't
// already provide; it exists so call sites write `tracing.Span` instead of
// repeating the StartSpan/report dance the teacher inlines per op.
package tracing

import (
	"context"

	"github.com/jacobsa/reqtrace"
)

// Span starts a reqtrace span named desc and returns a context carrying it
// along with a done func that must be called exactly once with the
// operation's error (nil on success).
func Span(ctx context.Context, desc string) (context.Context, func(err error)) {
	spanCtx, report := reqtrace.StartSpan(ctx, desc)
	return spanCtx, report
}
