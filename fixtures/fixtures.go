// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fixtures - shared helpers for package tests
package fixtures

import (
	"fmt"
	"io/ioutil"
	"os"
	"sync"
	"time"

	"github.com/bitmark-inc/certgen"
	"github.com/bitmark-inc/logger"
)

const (
	dir         = "testing"
	LogCategory = "testing"
)

// Serial and friends describe the well-formed certificate used across tests
const (
	Serial       = "DALSKM20250101-ABCDEF12"
	Wallet       = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"
	OwnerName    = "Test Owner"
	ChainID      = "Polygon"
	ContentHash  = "ipfs://Qm1234567890123456789012345678901234567890"
	MintedAt     = "2025-01-01T12:00:00Z"
	Signature    = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	VerifyingKey = "fedcba9876543210fedcba9876543210fedcba9876543210fedcba9876543210"
)

// SetupTestLogger - start the logger writing to a throwaway directory
func SetupTestLogger() {
	removeFiles()
	_ = os.Mkdir(dir, 0700)

	logging := logger.Configuration{
		Directory: dir,
		File:      fmt.Sprintf("%s.log", LogCategory),
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}

	// start logging
	_ = logger.Initialise(logging)
}

// TeardownTestLogger - stop the logger and remove its files
func TeardownTestLogger() {
	logger.Finalise()
	removeFiles()
}

// TempDir - create a scratch directory, the returned function removes it
func TempDir(prefix string) (string, func()) {
	d, err := ioutil.TempDir("", prefix)
	if nil != err {
		panic(fmt.Sprintf("create temporary directory error: %s", err))
	}
	return d, func() {
		_ = os.RemoveAll(d)
	}
}

func removeFiles() {
	err := os.RemoveAll(dir)
	if nil != err {
		fmt.Println("remove dir with error: ", err)
	}
}

var tlsPair struct {
	sync.Once
	certificate string
	key         string
}

// Certificate - a self signed certificate and key in PEM form
//
// generated once per test binary
func Certificate() (string, string) {
	tlsPair.Do(func() {
		cert, key, err := certgen.NewTLSCertPair("skgd test certificate", time.Now().Add(24*time.Hour), false, []string{"127.0.0.1"})
		if nil != err {
			panic(fmt.Sprintf("generate certificate error: %s", err))
		}
		tlsPair.certificate = string(cert)
		tlsPair.key = string(key)
	})
	return tlsPair.certificate, tlsPair.key
}
