// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package pattern - behavioural clusters of certificates
//
// every observed certificate joins exactly one cluster in each of
// four dimensions:
//
//   wallet_behavior  SHA3-256(wallet ":" owner name), first 8 bytes as hex
//   content          first 16 characters of the content hash
//   temporal         minting time truncated to the UTC hour
//   chain            chain id
//
// duplicate detection is a content-prefix match, not full hash
// equality.  With 16 hex characters of prefix two unrelated hashes
// collide with probability about 16^-16 per pair.
package pattern
