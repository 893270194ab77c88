// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"github.com/truemark/skgd/fault"
)

// common errors - keep in alphabetic order
const (
	ErrMissingFile   = fault.InvalidError("file name is required")
	ErrMissingSerial = fault.InvalidError("serial is required")
	ErrMissingTxID   = fault.InvalidError("vault transaction id is required")
	ErrMissingWallet = fault.InvalidError("wallet address is required")
)
