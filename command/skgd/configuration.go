// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/truemark/skgd/configuration"
	"github.com/truemark/skgd/drift"
	"github.com/truemark/skgd/fault"
	"github.com/truemark/skgd/inbox"
	"github.com/truemark/skgd/publish"
	"github.com/truemark/skgd/rpc/listeners"
	"github.com/truemark/skgd/util"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultWorkerID            = "worker-1"
	defaultTransactionLog      = "txlog"
	defaultFlushTimeout        = "5s"
	defaultIndexType           = indexLevelDB
	defaultIndexName           = "wallets.leveldb"
	defaultFingerprintExpiry   = "1h"
	defaultInboxDirectory      = "" // disabled
	defaultPublishQueueSize    = 1000
	defaultPublishPublicKey    = "publish.public"
	defaultPublishPrivateKey   = "publish.private"
	defaultKeyFile             = "rpc.key"
	defaultCertificateFile     = "rpc.crt"
	defaultRPCClients          = 10
	defaultLogDirectory        = "log"
	defaultLogFile             = "skgd.log"
	defaultLogCount            = 10          //  number of log files retained
	defaultLogSize             = 1024 * 1024 // rotate when <logfile> exceeds this size
	defaultStatisticsInterval  = "60s"
	defaultDriftIssuance       = "300s"
	indexLevelDB               = "leveldb"
	indexMemory                = "memory"
	minimumStatisticsInterval  = time.Second
	maximumFingerprintDuration = 24 * time.Hour * 365
)

// LoglevelMap - to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		logger.DefaultTag: "critical",
	}
)

// TransactionLogType - where the worker's streams are kept
type TransactionLogType struct {
	Directory    string `gluamapper:"directory" json:"directory"`
	FlushTimeout string `gluamapper:"flush_timeout" json:"flush_timeout"`
}

// IndexType - the wallet index backing
type IndexType struct {
	Type string `gluamapper:"type" json:"type"`
	Name string `gluamapper:"name" json:"name"`
}

// PatternType - learner settings
type PatternType struct {
	FingerprintExpiry string `gluamapper:"fingerprint_expiry" json:"fingerprint_expiry"`
}

// DriftType - analyzer baselines
type DriftType struct {
	IssuanceInterval string `gluamapper:"issuance_interval" json:"issuance_interval"`
	SignatureLength  int    `gluamapper:"signature_length" json:"signature_length"`
	KeyLength        int    `gluamapper:"key_length" json:"key_length"`
	ContentScheme    string `gluamapper:"content_scheme" json:"content_scheme"`
	MinimumCIDLength int    `gluamapper:"minimum_cid_length" json:"minimum_cid_length"`
	HistoryLimit     int    `gluamapper:"history_limit" json:"history_limit"`
}

// Configuration - the daemon's settings
type Configuration struct {
	DataDirectory      string                       `gluamapper:"data_directory" json:"data_directory"`
	PidFile            string                       `gluamapper:"pidfile" json:"pidfile"`
	WorkerID           string                       `gluamapper:"worker_id" json:"worker_id"`
	StatisticsInterval string                       `gluamapper:"statistics_interval" json:"statistics_interval"`
	TransactionLog     TransactionLogType           `gluamapper:"transaction_log" json:"transaction_log"`
	Index              IndexType                    `gluamapper:"index" json:"index"`
	Pattern            PatternType                  `gluamapper:"pattern" json:"pattern"`
	Drift              DriftType                    `gluamapper:"drift" json:"drift"`
	Inbox              inbox.Configuration          `gluamapper:"inbox" json:"inbox"`
	ClientRPC          listeners.RPCConfiguration   `gluamapper:"client_rpc" json:"client_rpc"`
	HttpsRPC           listeners.HTTPSConfiguration `gluamapper:"https_rpc" json:"https_rpc"`
	Publishing         publish.Configuration        `gluamapper:"publishing" json:"publishing"`
	Logging            logger.Configuration         `gluamapper:"logging" json:"logging"`

	// parsed forms of the duration strings above
	flushTimeout       time.Duration
	fingerprintExpiry  time.Duration
	statisticsInterval time.Duration
	policy             drift.Policy
}

// will read decode and verify the configuration
func getConfiguration(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	policy := drift.DefaultPolicy()

	options := &Configuration{
		DataDirectory:      defaultDataDirectory,
		PidFile:            "", // no PidFile by default
		WorkerID:           defaultWorkerID,
		StatisticsInterval: defaultStatisticsInterval,

		TransactionLog: TransactionLogType{
			Directory:    defaultTransactionLog,
			FlushTimeout: defaultFlushTimeout,
		},

		Index: IndexType{
			Type: defaultIndexType,
			Name: defaultIndexName,
		},

		Pattern: PatternType{
			FingerprintExpiry: defaultFingerprintExpiry,
		},

		Drift: DriftType{
			IssuanceInterval: defaultDriftIssuance,
			SignatureLength:  policy.SignatureLength,
			KeyLength:        policy.KeyLength,
			ContentScheme:    policy.ContentScheme,
			MinimumCIDLength: policy.MinimumCIDLength,
			HistoryLimit:     policy.HistoryLimit,
		},

		Inbox: inbox.Configuration{
			Directory: defaultInboxDirectory,
		},

		ClientRPC: listeners.RPCConfiguration{
			MaximumConnections: defaultRPCClients,
			Certificate:        defaultCertificateFile,
			PrivateKey:         defaultKeyFile,
		},

		// default: share config with normal RPC
		HttpsRPC: listeners.HTTPSConfiguration{
			MaximumConnections: defaultRPCClients,
			Certificate:        defaultCertificateFile,
			PrivateKey:         defaultKeyFile,
		},

		Publishing: publish.Configuration{
			PublicKey:  defaultPublishPublicKey,
			PrivateKey: defaultPublishPrivateKey,
			QueueSize:  defaultPublishQueueSize,
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := configuration.ParseConfigurationFile(configurationFileName, options); nil != err {
		return nil, err
	}

	if err := options.validate(); nil != err {
		return nil, err
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("path: %q is not a valid directory", options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	} else {
		options.DataDirectory = util.EnsureAbsolute(dataDirectory, options.DataDirectory)
	}

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fmt.Errorf("path: %q is not a directory", options.DataDirectory)
	}

	// force all relevant items to be absolute paths
	// if not, assign them to the data directory
	mustBeAbsolute := []*string{
		&options.TransactionLog.Directory,
		&options.ClientRPC.Certificate,
		&options.ClientRPC.PrivateKey,
		&options.HttpsRPC.Certificate,
		&options.HttpsRPC.PrivateKey,
		&options.Publishing.PublicKey,
		&options.Publishing.PrivateKey,
		&options.Logging.Directory,
	}
	for _, f := range mustBeAbsolute {
		*f = util.EnsureAbsolute(options.DataDirectory, *f)
	}

	// optional absolute paths i.e. blank or an absolute path
	optionalAbsolute := []*string{
		&options.PidFile,
		&options.Inbox.Directory,
	}
	for _, f := range optionalAbsolute {
		if "" != *f {
			*f = util.EnsureAbsolute(options.DataDirectory, *f)
		}
	}

	// fail if any of these are not simple file names
	for _, f := range []*string{
		&options.Index.Name,
		&options.Logging.File,
	} {
		switch filepath.Dir(*f) {
		case "", ".":
		default:
			return nil, fmt.Errorf("files: %q is not plain name", *f)
		}
	}
	options.Index.Name = util.EnsureAbsolute(options.DataDirectory, options.Index.Name)

	// each worker has its own log directory
	options.TransactionLog.Directory = filepath.Join(options.TransactionLog.Directory, options.WorkerID)

	// create directories if they do not already exist
	for _, d := range []string{
		options.TransactionLog.Directory,
		options.Logging.Directory,
	} {
		if err := os.MkdirAll(d, 0700); nil != err {
			return nil, err
		}
	}

	// done
	return options, nil
}

// check values and convert the duration strings
func (options *Configuration) validate() error {
	var err error

	options.WorkerID = strings.TrimSpace(options.WorkerID)
	if "" == options.WorkerID || strings.ContainsAny(options.WorkerID, "/\\ \t\r\n") {
		return fmt.Errorf("worker_id: %q is not a valid worker identifier", options.WorkerID)
	}

	options.flushTimeout, err = parseDuration("transaction_log.flush_timeout", options.TransactionLog.FlushTimeout, 0)
	if nil != err {
		return err
	}
	options.fingerprintExpiry, err = parseDuration("pattern.fingerprint_expiry", options.Pattern.FingerprintExpiry, maximumFingerprintDuration)
	if nil != err {
		return err
	}
	options.statisticsInterval, err = parseDuration("statistics_interval", options.StatisticsInterval, 0)
	if nil != err {
		return err
	}
	if 0 != options.statisticsInterval && options.statisticsInterval < minimumStatisticsInterval {
		return fmt.Errorf("statistics_interval: %s is below the minimum: %s", options.statisticsInterval, minimumStatisticsInterval)
	}

	issuance, err := parseDuration("drift.issuance_interval", options.Drift.IssuanceInterval, 0)
	if nil != err {
		return err
	}
	options.policy = drift.Policy{
		IssuanceInterval: issuance,
		SignatureLength:  options.Drift.SignatureLength,
		KeyLength:        options.Drift.KeyLength,
		ContentScheme:    options.Drift.ContentScheme,
		MinimumCIDLength: options.Drift.MinimumCIDLength,
		HistoryLimit:     options.Drift.HistoryLimit,
	}
	if err := options.policy.Validate(); nil != err {
		return fmt.Errorf("drift: %w", err)
	}

	options.Index.Type = strings.ToLower(strings.TrimSpace(options.Index.Type))
	switch options.Index.Type {
	case indexLevelDB, indexMemory:
	default:
		return fmt.Errorf("index.type: %q is not one of: %s, %s: %w", options.Index.Type, indexLevelDB, indexMemory, fault.ErrInvalidIndexType)
	}

	if options.Publishing.Enabled() && options.Publishing.QueueSize <= 0 {
		return fmt.Errorf("publishing.queue_size: %d must be positive", options.Publishing.QueueSize)
	}

	return nil
}

// durations are written as Go duration strings, e.g. "5s" or "1h30m"
// and a zero maximum means unbounded
func parseDuration(name string, value string, maximum time.Duration) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if nil != err {
		return 0, fmt.Errorf("%s: %q: %w", name, value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: %q must not be negative", name, value)
	}
	if 0 != maximum && d > maximum {
		return 0, fmt.Errorf("%s: %q exceeds: %s", name, value, maximum)
	}
	return d, nil
}
