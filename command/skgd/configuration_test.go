// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func writeConfiguration(t *testing.T, content string) (string, string) {
	dir, err := ioutil.TempDir("", "skgd-main")
	if nil != err {
		t.Fatalf("temp dir error: %s", err)
	}
	name := filepath.Join(dir, "skgd.conf")
	if err := ioutil.WriteFile(name, []byte(content), 0600); nil != err {
		t.Fatalf("write error: %s", err)
	}
	return dir, name
}

func TestDefaultsApplied(t *testing.T) {
	dir, name := writeConfiguration(t, `return { data_directory = "." }`)
	defer os.RemoveAll(dir)

	c, err := getConfiguration(name)
	assert.Nil(t, err, "wrong error")

	assert.Equal(t, defaultWorkerID, c.WorkerID, "wrong worker")
	assert.Equal(t, 5*time.Second, c.flushTimeout, "wrong flush timeout")
	assert.Equal(t, time.Hour, c.fingerprintExpiry, "wrong expiry")
	assert.Equal(t, 300*time.Second, c.policy.IssuanceInterval, "wrong issuance interval")
	assert.Equal(t, 128, c.policy.SignatureLength, "wrong signature length")
	assert.Equal(t, indexLevelDB, c.Index.Type, "wrong index type")
	assert.Equal(t, filepath.Join(dir, defaultIndexName), c.Index.Name, "index not absolute")
	assert.Equal(t, filepath.Join(dir, defaultTransactionLog, defaultWorkerID), c.TransactionLog.Directory, "wrong log directory")
	assert.Equal(t, filepath.Join(dir, defaultCertificateFile), c.ClientRPC.Certificate, "certificate not absolute")
	assert.Equal(t, "", c.Inbox.Directory, "inbox enabled by default")
	assert.False(t, c.Publishing.Enabled(), "publishing enabled by default")

	info, err := os.Stat(c.TransactionLog.Directory)
	assert.Nil(t, err, "log directory not created")
	assert.True(t, info.IsDir(), "log directory not a directory")
}

func TestOverrides(t *testing.T) {
	dir, name := writeConfiguration(t, `
local M = {}
M.data_directory = "."
M.worker_id = "worker-9"
M.transaction_log = { directory = "logs", flush_timeout = "250ms" }
M.index = { type = "Memory", name = "ignored.leveldb" }
M.drift = { issuance_interval = "10m", signature_length = 128, key_length = 64, content_scheme = "ipfs://", minimum_cid_length = 10, history_limit = 0 }
M.inbox = { directory = "drop" }
M.publishing = { broadcast = { "127.0.0.1:2135" }, queue_size = 5 }
return M
`)
	defer os.RemoveAll(dir)

	c, err := getConfiguration(name)
	assert.Nil(t, err, "wrong error")

	assert.Equal(t, "worker-9", c.WorkerID, "wrong worker")
	assert.Equal(t, 250*time.Millisecond, c.flushTimeout, "wrong flush timeout")
	assert.Equal(t, indexMemory, c.Index.Type, "index type not normalised")
	assert.Equal(t, 10*time.Minute, c.policy.IssuanceInterval, "wrong issuance interval")
	assert.Equal(t, 10, c.policy.MinimumCIDLength, "wrong cid length")
	assert.Equal(t, filepath.Join(dir, "logs", "worker-9"), c.TransactionLog.Directory, "wrong log directory")
	assert.Equal(t, filepath.Join(dir, "drop"), c.Inbox.Directory, "wrong inbox")
	assert.True(t, c.Publishing.Enabled(), "publishing disabled")
	assert.Equal(t, 5, c.Publishing.QueueSize, "wrong queue size")
}

func TestInvalidConfigurations(t *testing.T) {
	items := []string{
		`return { }`,
		`return { data_directory = ".", worker_id = "has space" }`,
		`return { data_directory = ".", transaction_log = { flush_timeout = "soon" } }`,
		`return { data_directory = ".", transaction_log = { flush_timeout = "-1s" } }`,
		`return { data_directory = ".", index = { type = "postgres" } }`,
		`return { data_directory = ".", index = { name = "sub/wallets.leveldb" } }`,
		`return { data_directory = ".", statistics_interval = "10ms" }`,
		`return { data_directory = ".", drift = { issuance_interval = "0s", signature_length = 128, key_length = 64, minimum_cid_length = 40 } }`,
		`return { data_directory = ".", publishing = { broadcast = { "127.0.0.1:2135" }, queue_size = 0 } }`,
		`return { data_directory = "/no/such/directory" }`,
	}

	for i, item := range items {
		dir, name := writeConfiguration(t, item)
		_, err := getConfiguration(name)
		assert.NotNil(t, err, "%d: configuration accepted: %s", i, item)
		os.RemoveAll(dir)
	}
}

func TestWorkerIDTrimmedBeforeUse(t *testing.T) {
	dir, name := writeConfiguration(t, `return { data_directory = ".", worker_id = " w1 " }`)
	defer os.RemoveAll(dir)

	c, err := getConfiguration(name)
	assert.Nil(t, err, "wrong error")

	assert.Equal(t, "w1", c.WorkerID, "worker not trimmed")
	assert.Equal(t, filepath.Join(dir, defaultTransactionLog, "w1"), c.TransactionLog.Directory, "untrimmed worker in log directory")
}
