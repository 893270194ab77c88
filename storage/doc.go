// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// maintain the on-disk wallet index
//
// a single LevelDB database mapping wallet addresses to the
// certificates they own, so portfolio queries do not need to walk
// every edge of the graph.
//
// Notes:
// 1. ++           = concatenation of byte data
// 2. wallet       = wallet address as given in the payload
// 3. certificate  = certificate node id (cert:<serial>)
//
// Keys:
//
//   W ++ wallet ++ 0x00 ++ certificate   - ownership
//                                          data: empty
//   0x00 ++ "VERSION"                    - database layout version
//                                          data: big endian uint32
//   0x00 ++ "CHECKPOINT"                 - last transaction id reflected in the index
//                                          data: transaction id
//
// the index is derived data: a version mismatch drops it and the
// daemon rebuilds it from the transaction log
package storage
