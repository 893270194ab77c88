// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpccalls

import (
	"github.com/truemark/skgd/engine"
	"github.com/truemark/skgd/rpc/graph"
)

// call - send a request and decode the reply, echoing both when verbose
func (client *Client) call(method string, title string, arguments interface{}, reply interface{}) error {
	client.printJson(title+" Request", arguments)

	if err := client.client.Call(method, arguments, reply); nil != err {
		return err
	}

	client.printJson(title+" Reply", reply)
	return nil
}

// Ingest - submit one certificate
func (client *Client) Ingest(vaultTransactionID string, payload *engine.Payload) (*graph.IngestReply, error) {
	arguments := graph.IngestArguments{
		VaultTransactionID: vaultTransactionID,
		Certificate:        payload,
	}
	var reply graph.IngestReply
	if err := client.call("Graph.Ingest", "Ingest", &arguments, &reply); nil != err {
		return nil, err
	}
	return &reply, nil
}

// Portfolio - certificates of a wallet
func (client *Client) Portfolio(wallet string) (*graph.PortfolioReply, error) {
	arguments := graph.PortfolioArguments{
		Wallet: wallet,
	}
	var reply graph.PortfolioReply
	if err := client.call("Graph.Portfolio", "Portfolio", &arguments, &reply); nil != err {
		return nil, err
	}
	return &reply, nil
}

// Health - graph summary and run state
func (client *Client) Health() (*graph.HealthReply, error) {
	var reply graph.HealthReply
	if err := client.call("Graph.Health", "Health", &graph.HealthArguments{}, &reply); nil != err {
		return nil, err
	}
	return &reply, nil
}

// Transactions - newest transaction headers
func (client *Client) Transactions(count int) (*graph.TransactionsReply, error) {
	arguments := graph.TransactionsArguments{
		Count: count,
	}
	var reply graph.TransactionsReply
	if err := client.call("Graph.Transactions", "Transactions", &arguments, &reply); nil != err {
		return nil, err
	}
	return &reply, nil
}

// Duplicates - certificates sharing content with a serial
func (client *Client) Duplicates(serial string) (*graph.DuplicatesReply, error) {
	arguments := graph.DuplicatesArguments{
		Serial: serial,
	}
	var reply graph.DuplicatesReply
	if err := client.call("Graph.Duplicates", "Duplicates", &arguments, &reply); nil != err {
		return nil, err
	}
	return &reply, nil
}
