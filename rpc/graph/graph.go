// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package graph

import (
	"strings"
	"time"

	"github.com/bitmark-inc/logger"
	"golang.org/x/time/rate"

	"github.com/truemark/skgd/counter"
	"github.com/truemark/skgd/engine"
	"github.com/truemark/skgd/entity"
	"github.com/truemark/skgd/fault"
	"github.com/truemark/skgd/rpc/ratelimit"
)

const (
	rateLimitGraph = 200
	rateBurstGraph = 100

	rateLimitIngest = 50
	rateBurstIngest = 20
)

// limit for count
const maximumTransactions = 100

// Engine - the operations exposed over RPC
type Engine interface {
	Ingest(payload *engine.Payload, vaultTransactionID string) (*engine.Result, error)
	Portfolio(wallet string) *engine.Portfolio
	Health() *engine.Health
	RecentTransactions(limit int) ([]entity.Transaction, error)
	Duplicates(serial string) []string
}

// Graph - type for RPC calls
type Graph struct {
	Log           *logger.L
	Limiter       *rate.Limiter
	IngestLimiter *rate.Limiter
	Engine        Engine
	Start         time.Time
	Version       string
	counter       *counter.Counter
}

// New - create the RPC service
func New(log *logger.L, e Engine, start time.Time, version string, counter *counter.Counter) *Graph {
	return &Graph{
		Log:           log,
		Limiter:       rate.NewLimiter(rateLimitGraph, rateBurstGraph),
		IngestLimiter: rate.NewLimiter(rateLimitIngest, rateBurstIngest),
		Engine:        e,
		Start:         start,
		Version:       version,
		counter:       counter,
	}
}

// ---

// IngestArguments - a certificate to add
type IngestArguments struct {
	VaultTransactionID string          `json:"vault_transaction_id"`
	Certificate        *engine.Payload `json:"certificate"`
}

// IngestReply - outcome of the ingestion
type IngestReply struct {
	engine.Result
}

// Ingest - add a certificate to the graph
func (g *Graph) Ingest(arguments *IngestArguments, reply *IngestReply) error {
	if err := ratelimit.Limit(g.IngestLimiter); nil != err {
		return err
	}

	if nil == arguments || nil == arguments.Certificate {
		return fault.ErrInvalidPayload
	}

	g.Log.Infof("ingest: %s  vault transaction: %q", arguments.Certificate.DALSSerial, arguments.VaultTransactionID)

	result, err := g.Engine.Ingest(arguments.Certificate, arguments.VaultTransactionID)
	if nil != err {
		g.Log.Warnf("ingest: %s  error: %s", arguments.Certificate.DALSSerial, err)
		return err
	}
	reply.Result = *result
	return nil
}

// ---

// PortfolioArguments - the wallet to look up
type PortfolioArguments struct {
	Wallet string `json:"wallet_address"`
}

// PortfolioReply - certificates of a wallet
type PortfolioReply struct {
	engine.Portfolio
}

// Portfolio - certificates owned by a wallet with their drift
func (g *Graph) Portfolio(arguments *PortfolioArguments, reply *PortfolioReply) error {
	if err := ratelimit.Limit(g.Limiter); nil != err {
		return err
	}

	if nil == arguments || "" == strings.TrimSpace(arguments.Wallet) {
		return fault.MissingField("wallet_address")
	}

	reply.Portfolio = *g.Engine.Portfolio(arguments.Wallet)
	return nil
}

// ---

// HealthArguments - empty arguments for health request
type HealthArguments struct{}

// HealthReply - results from health request
type HealthReply struct {
	engine.Health
	RPCs    uint64 `json:"rpcs"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Health - counts, drift average, clusters and run state
func (g *Graph) Health(_ *HealthArguments, reply *HealthReply) error {
	if err := ratelimit.Limit(g.Limiter); nil != err {
		return err
	}

	reply.Health = *g.Engine.Health()
	reply.RPCs = g.counter.Uint64()
	reply.Version = g.Version
	reply.Uptime = time.Since(g.Start).String()
	return nil
}

// ---

// TransactionsArguments - how many headers to return
type TransactionsArguments struct {
	Count int `json:"count"`
}

// TransactionsReply - transaction headers newest first
type TransactionsReply struct {
	Transactions []entity.Transaction `json:"transactions"`
}

// Transactions - the most recent log transactions
func (g *Graph) Transactions(arguments *TransactionsArguments, reply *TransactionsReply) error {
	if nil == arguments {
		return fault.ErrInvalidCount
	}
	if err := ratelimit.LimitN(g.Limiter, arguments.Count, maximumTransactions); nil != err {
		return err
	}

	transactions, err := g.Engine.RecentTransactions(arguments.Count)
	if nil != err {
		return err
	}
	reply.Transactions = transactions
	return nil
}

// ---

// DuplicatesArguments - the certificate to compare
type DuplicatesArguments struct {
	Serial string `json:"dals_serial"`
}

// DuplicatesReply - certificates sharing its content
type DuplicatesReply struct {
	Serial     string   `json:"dals_serial"`
	Duplicates []string `json:"duplicates"`
}

// Duplicates - certificates with the same content prefix
func (g *Graph) Duplicates(arguments *DuplicatesArguments, reply *DuplicatesReply) error {
	if err := ratelimit.Limit(g.Limiter); nil != err {
		return err
	}

	if nil == arguments || "" == strings.TrimSpace(arguments.Serial) {
		return fault.MissingField("dals_serial")
	}

	reply.Serial = arguments.Serial
	reply.Duplicates = g.Engine.Duplicates(arguments.Serial)
	return nil
}
