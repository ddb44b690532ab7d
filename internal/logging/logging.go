/*
Logging
Copyright (C) 2026 Ivan Latunov

This program is free software; you can redistribute it and/or modify it under
the terms of the GNU General Public License as published by the Free Software
Foundation; either version 2 of the License, or (at your option) any later
version.

This program is distributed in the hope that it will be useful, but WITHOUT ANY
WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR A
PARTICULAR PURPOSE.  See the GNU General Public License for more details.

You should have received a copy of the GNU General Public License along with
this program; if not, write to the Free Software Foundation, Inc., 59 Temple
Place, Suite 330, Boston, MA 02111-1307 USA
*/

// Package logging holds the process-wide logger used by every gifcompare
// package. It defaults to a stderr logger and may be swapped or muted.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/jcgregorio/logger"
	"github.com/jcgregorio/slog"
)

var (
	mu  sync.RWMutex
	log slog.Logger = New(os.Stderr, false)
)

// syncWriter adds a no-op Sync to writers that cannot flush.
type syncWriter struct {
	io.Writer
}

func (syncWriter) Sync() error { return nil }

// New returns a logger writing to w. Debug messages are emitted only when
// debug is true.
func New(w io.Writer, debug bool) slog.Logger {
	sw, ok := w.(logger.SyncWriter)
	if !ok {
		sw = syncWriter{w}
	}
	return logger.NewFromOptions(&logger.Options{
		SyncWriter:   sw,
		IncludeDebug: debug,
		// Skip the package-level helpers below when reporting the caller.
		DepthDelta: 1,
	})
}

// SetLogger replaces the process logger. Passing nil installs a no-op logger.
func SetLogger(l slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		log = logger.NewNopLogger()
		return
	}
	log = l
}

// Logger returns the current process logger.
func Logger() slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func Debugf(format string, v ...interface{}) {
	Logger().Debugf(format, v...)
}

func Infof(format string, v ...interface{}) {
	Logger().Infof(format, v...)
}

func Warningf(format string, v ...interface{}) {
	Logger().Warningf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	Logger().Errorf(format, v...)
}
