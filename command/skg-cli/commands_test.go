// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func run(arguments ...string) (string, error) {
	var out bytes.Buffer
	var errors bytes.Buffer
	app := newApp(&out, &errors)
	err := app.Run(append([]string{"skg-cli"}, arguments...))
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run("version")
	assert.Nil(t, err, "wrong error")
	assert.Equal(t, version+"\n", out, "wrong output")
}

func TestMissingArguments(t *testing.T) {
	_, err := run("portfolio")
	assert.Equal(t, ErrMissingWallet, err, "wrong portfolio error")

	_, err = run("duplicates")
	assert.Equal(t, ErrMissingSerial, err, "wrong duplicates error")

	_, err = run("ingest")
	assert.Equal(t, ErrMissingFile, err, "wrong ingest error")
}

func TestIngestNeedsVaultTransaction(t *testing.T) {
	dir, err := ioutil.TempDir("", "skg-cli")
	if nil != err {
		t.Fatalf("temp dir error: %s", err)
	}
	defer os.RemoveAll(dir)

	name := filepath.Join(dir, "submission.json")
	err = ioutil.WriteFile(name, []byte(`{"certificate": {"dals_serial": "S1"}}`), 0600)
	if nil != err {
		t.Fatalf("write error: %s", err)
	}

	_, err = run("ingest", "--file", name)
	assert.Equal(t, ErrMissingTxID, err, "wrong error")

	err = ioutil.WriteFile(name, []byte(`{"certificate": {"unknown": "S1"}}`), 0600)
	if nil != err {
		t.Fatalf("write error: %s", err)
	}
	_, err = run("ingest", "--file", name, "--vault-txid", "vault-1")
	assert.NotNil(t, err, "unknown field accepted")
}
