// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - error instances
//
// Provides a single instance of the simple errors to allow easy
// comparison without having to resort to partial string matches, and
// structured errors for failures that must name the offending field,
// node or edge
package fault
