// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txlog

import (
	"os"
	"time"
)

// File - writer handed out by an injected opener
type File = file

// SetOpener - replace the stream opener
func (l *Log) SetOpener(open func(name string, flag int, perm os.FileMode) (File, error)) {
	l.open = open
}

// DefaultOpener - the real opener
func DefaultOpener(name string, flag int, perm os.FileMode) (File, error) {
	return osOpen(name, flag, perm)
}

// SetClock - replace the time source used for ids and headers
func (l *Log) SetClock(now func() time.Time) {
	l.now = now
}
