// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package graph - in-memory view of the knowledge graph
//
// the store holds the newest version of every node and every edge
// whose endpoints it knows.  It is only ever changed by applying
// batches that are already durable in the transaction log, or by
// loading the result of a log replay.
package graph
