// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"io/ioutil"
	"os"
	"strings"

	"github.com/urfave/cli"

	"github.com/truemark/skgd/command/skg-cli/rpccalls"
	"github.com/truemark/skgd/inbox"
)

// dial the daemon named by the global flags
func connect(m *metadata) (*rpccalls.Client, error) {
	return rpccalls.NewClient(m.connect, m.fingerprint, m.verbose, m.e)
}

func runIngest(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	file := strings.TrimSpace(c.String("file"))
	if "" == file {
		return ErrMissingFile
	}

	var data []byte
	var err error
	if "-" == file {
		data, err = ioutil.ReadAll(os.Stdin)
	} else {
		data, err = ioutil.ReadFile(file)
	}
	if nil != err {
		return err
	}

	submission, err := inbox.Decode(data)
	if nil != err {
		return err
	}
	if txid := strings.TrimSpace(c.String("vault-txid")); "" != txid {
		submission.VaultTransactionID = txid
	}
	if "" == submission.VaultTransactionID {
		return ErrMissingTxID
	}

	client, err := connect(m)
	if nil != err {
		return err
	}
	defer client.Close()

	reply, err := client.Ingest(submission.VaultTransactionID, submission.Certificate)
	if nil != err {
		return err
	}
	return printJson(m.w, reply)
}

func runPortfolio(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	wallet := strings.TrimSpace(c.String("wallet"))
	if "" == wallet {
		return ErrMissingWallet
	}

	client, err := connect(m)
	if nil != err {
		return err
	}
	defer client.Close()

	reply, err := client.Portfolio(wallet)
	if nil != err {
		return err
	}
	return printJson(m.w, reply)
}

func runHealth(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	client, err := connect(m)
	if nil != err {
		return err
	}
	defer client.Close()

	reply, err := client.Health()
	if nil != err {
		return err
	}
	return printJson(m.w, reply)
}

func runTransactions(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	client, err := connect(m)
	if nil != err {
		return err
	}
	defer client.Close()

	reply, err := client.Transactions(c.Int("count"))
	if nil != err {
		return err
	}
	return printJson(m.w, reply)
}

func runDuplicates(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	serial := strings.TrimSpace(c.String("serial"))
	if "" == serial {
		return ErrMissingSerial
	}

	client, err := connect(m)
	if nil != err {
		return err
	}
	defer client.Close()

	reply, err := client.Duplicates(serial)
	if nil != err {
		return err
	}
	return printJson(m.w, reply)
}
