// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package entity - node, edge and transaction values of the knowledge graph
//
// nodes are never modified: a change produces a successor with the
// same id and creation time and a higher version.  property values
// are restricted to scalars and integers are held as float64 so that
// a node is identical before and after a round trip through the log.
package entity
