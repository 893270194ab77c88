// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package inbox_test

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"

	"github.com/truemark/skgd/background"
	"github.com/truemark/skgd/engine"
	"github.com/truemark/skgd/fault"
	"github.com/truemark/skgd/fixtures"
	"github.com/truemark/skgd/inbox"
)

type ingester struct {
	sync.Mutex
	serials []string
	vault   []string
	err     error
}

func (i *ingester) Ingest(payload *engine.Payload, vaultTransactionID string) (*engine.Result, error) {
	i.Lock()
	defer i.Unlock()
	if nil != i.err {
		return nil, i.err
	}
	if err := payload.Validate(); nil != err {
		return nil, err
	}
	i.serials = append(i.serials, payload.DALSSerial)
	i.vault = append(i.vault, vaultTransactionID)
	return &engine.Result{TransactionID: fmt.Sprintf("T%d", len(i.serials))}, nil
}

func (i *ingester) seen() []string {
	i.Lock()
	defer i.Unlock()
	return append([]string{}, i.serials...)
}

func submission(serial string, vault string) string {
	return fmt.Sprintf(`{"vault_transaction_id":%q,"certificate":{"dals_serial":%q,"owner_name":%q,"wallet_address":%q,"ipfs_hash":%q,"chain_id":%q,"block_height":42,"minted_at":%q,"ed25519_signature":%q,"verifying_key":%q}}`,
		vault, serial, fixtures.OwnerName, fixtures.Wallet, fixtures.ContentHash, fixtures.ChainID, fixtures.MintedAt, fixtures.Signature, fixtures.VerifyingKey)
}

func drop(t *testing.T, dir string, name string, content string) {
	staging := filepath.Join(dir, "."+name+".tmp")
	if err := ioutil.WriteFile(staging, []byte(content), 0600); nil != err {
		t.Fatalf("write error: %s", err)
	}
	if err := os.Rename(staging, filepath.Join(dir, name)); nil != err {
		t.Fatalf("rename error: %s", err)
	}
}

func exists(name string) bool {
	_, err := os.Stat(name)
	return nil == err
}

func TestScanInNameOrder(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()
	dir, remove := fixtures.TempDir("inbox")
	defer remove()

	drop(t, dir, "002.json", submission("S2", "V2"))
	drop(t, dir, "001.json", submission("S1", "V1"))
	drop(t, dir, "003.txt", submission("S3", "V3"))

	target := &ingester{}
	in, err := inbox.New(logger.New(fixtures.LogCategory), dir, target)
	assert.Nil(t, err, "new error")
	in.Scan()

	assert.Equal(t, []string{"S1", "S2"}, target.seen(), "wrong order")
	assert.Equal(t, []string{"V1", "V2"}, target.vault, "wrong vault transactions")
	assert.True(t, exists(filepath.Join(dir, inbox.DoneDirectory, "001.json")), "file not moved to done")
	assert.False(t, exists(filepath.Join(dir, "001.json")), "file left in inbox")
	assert.True(t, exists(filepath.Join(dir, "003.txt")), "non json file touched")
	assert.Equal(t, uint64(2), in.Ingested(), "wrong ingested count")
}

func TestRejectedFiles(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()
	dir, remove := fixtures.TempDir("inbox")
	defer remove()

	drop(t, dir, "bad.json", `{"certificate": {`)
	drop(t, dir, "blank.json", `{"vault_transaction_id":"V1","certificate":{"dals_serial":"S1"}}`)

	in, err := inbox.New(logger.New(fixtures.LogCategory), dir, &ingester{})
	assert.Nil(t, err, "new error")
	in.Scan()

	assert.Equal(t, uint64(2), in.Failed(), "wrong failed count")
	for _, name := range []string{"bad.json", "blank.json"} {
		failed := filepath.Join(dir, inbox.FailedDirectory, name)
		assert.True(t, exists(failed), "%s not moved to failed", name)
		assert.True(t, exists(failed+".error"), "%s has no reason", name)
	}

	reason, _ := ioutil.ReadFile(filepath.Join(dir, inbox.FailedDirectory, "blank.json.error"))
	assert.Contains(t, string(reason), "ipfs_hash", "reason does not name the field")
}

func TestNotAcceptingLeavesFile(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()
	dir, remove := fixtures.TempDir("inbox")
	defer remove()

	drop(t, dir, "001.json", submission("S1", "V1"))

	in, err := inbox.New(logger.New(fixtures.LogCategory), dir, &ingester{err: fault.ErrNotAcceptingIngestion})
	assert.Nil(t, err, "new error")
	in.Scan()

	assert.True(t, exists(filepath.Join(dir, "001.json")), "file removed while engine stopped")
	assert.Equal(t, uint64(0), in.Failed(), "counted as failed")
}

func TestRepeatedDeliverySkipped(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()
	dir, remove := fixtures.TempDir("inbox")
	defer remove()

	i := &ingester{}
	in, err := inbox.New(logger.New(fixtures.LogCategory), dir, i)
	assert.Nil(t, err, "new error")

	drop(t, dir, "001.json", submission("S1", "V1"))
	in.Scan()
	drop(t, dir, "002.json", submission("S1", "V1"))
	drop(t, dir, "003.json", submission("S1", "V2"))
	in.Scan()

	assert.Equal(t, []string{"S1", "S1"}, i.seen(), "wrong ingestions")
	assert.Equal(t, uint64(2), in.Ingested(), "wrong ingested count")
	assert.Equal(t, uint64(1), in.Duplicates(), "wrong duplicate count")
	assert.True(t, exists(filepath.Join(dir, inbox.DoneDirectory, "002.json")), "duplicate not moved to done")
}

func TestWatchNewFiles(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()
	dir, remove := fixtures.TempDir("inbox")
	defer remove()

	target := &ingester{}
	in, err := inbox.New(logger.New(fixtures.LogCategory), dir, target)
	assert.Nil(t, err, "new error")

	bg := background.Start(background.Processes{in}, nil)
	defer bg.Stop()

	drop(t, dir, "100.json", submission("S100", "V100"))

	done := filepath.Join(dir, inbox.DoneDirectory, "100.json")
	for i := 0; i < 200 && !exists(done); i += 1 {
		time.Sleep(10 * time.Millisecond)
	}
	assert.True(t, exists(done), "dropped file not processed")
	assert.Equal(t, []string{"S100"}, target.seen(), "wrong ingestion")
}

func TestDecode(t *testing.T) {
	s, err := inbox.Decode([]byte(submission("S1", "V1")))
	assert.Nil(t, err, "decode error")
	assert.Equal(t, "V1", s.VaultTransactionID, "wrong vault transaction")
	assert.Equal(t, engine.Height("42"), s.Certificate.BlockHeight, "wrong height")

	_, err = inbox.Decode([]byte(`{"vault_transaction_id":"V1"}`))
	assert.True(t, fault.IsErrInvalid(err), "missing certificate accepted")

	_, err = inbox.Decode([]byte(`{"certificate":{},"extra":1}`))
	assert.True(t, fault.IsErrInvalid(err), "unknown field accepted")
}

func TestNewValidation(t *testing.T) {
	_, err := inbox.New(nil, "x", &ingester{})
	assert.Equal(t, fault.ErrInvalidLoggerChannel, err, "wrong error")
}
