// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/truemark/skgd/background"
	"github.com/truemark/skgd/drift"
	"github.com/truemark/skgd/engine"
	"github.com/truemark/skgd/graph"
	"github.com/truemark/skgd/inbox"
	"github.com/truemark/skgd/messagebus"
	"github.com/truemark/skgd/pattern"
	"github.com/truemark/skgd/publish"
	"github.com/truemark/skgd/rpc"
	"github.com/truemark/skgd/storage"
	"github.com/truemark/skgd/txlog"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
		{Long: "memory-stats", HasArg: getoptions.NO_ARGUMENT, Short: 'm'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		processSetupCommand(program, []string{"version"})
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand(program, []string{"help"})
		return
	}

	// these commands do not require the configuration and
	// process data needed for initial setup
	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	theConfiguration, err := getConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// these commands require the configuration and
	// perform enquiries on the configuration
	if len(arguments) > 0 && processConfigCommand(arguments, theConfiguration) {
		return
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("theConfiguration: %v", theConfiguration)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	log.Infof("worker: %q", theConfiguration.WorkerID)
	log.Debugf("%s = %#v", "ClientRPC", theConfiguration.ClientRPC)
	log.Debugf("%s = %#v", "HttpsRPC", theConfiguration.HttpsRPC)
	log.Debugf("%s = %#v", "Publishing", theConfiguration.Publishing)
	log.Debugf("%s = %#v", "Inbox", theConfiguration.Inbox)

	// the durable transaction log
	log.Info("open transaction log")
	journal, err := txlog.Open(
		logger.New("txlog"),
		theConfiguration.TransactionLog.Directory,
		theConfiguration.WorkerID,
		theConfiguration.flushTimeout,
	)
	if nil != err {
		log.Criticalf("transaction log open error: %s", err)
		exitwithstatus.Message("transaction log open error: %s", err)
	}
	defer journal.Close()

	// these commands are allowed to access the transaction log
	if len(arguments) > 0 && processDataCommand(log, arguments, journal) {
		return
	}

	// wallet index
	var index graph.WalletIndex
	switch theConfiguration.Index.Type {
	case indexLevelDB:
		log.Infof("open wallet index: %q", theConfiguration.Index.Name)
		db, recreated, err := storage.Open(logger.New("storage"), theConfiguration.Index.Name)
		if nil != err {
			log.Criticalf("wallet index open error: %s", err)
			exitwithstatus.Message("wallet index open error: %s", err)
		}
		defer db.Close()
		if recreated {
			log.Warn("wallet index recreated, rebuild required")
		}
		index = db
	default:
		log.Info("memory wallet index")
		index = graph.NewMemoryIndex()
	}

	analyzer, err := drift.New(theConfiguration.policy)
	if nil != err {
		log.Criticalf("drift analyzer error: %s", err)
		exitwithstatus.Message("drift analyzer error: %s", err)
	}

	components := engine.Components{
		Journal:  journal,
		Store:    graph.New(logger.New("graph"), index),
		Learner:  pattern.New(theConfiguration.fingerprintExpiry),
		Analyzer: analyzer,
	}

	// start up the publishing background processes
	if theConfiguration.Publishing.Enabled() {
		queue := messagebus.New(theConfiguration.Publishing.QueueSize)
		err = publish.Initialise(&theConfiguration.Publishing, queue)
		if nil != err {
			log.Criticalf("publish initialise error: %s", err)
			exitwithstatus.Message("publish initialise error: %s", err)
		}
		defer publish.Finalise()
		components.Sink = queue
	} else {
		log.Warn("publishing disabled: events are only logged")
	}

	theEngine, err := engine.New(logger.New("engine"), components)
	if nil != err {
		log.Criticalf("engine create error: %s", err)
		exitwithstatus.Message("engine create error: %s", err)
	}

	// rebuild the graph from the log
	log.Info("replay transaction log")
	err = theEngine.Start()
	if nil != err {
		log.Criticalf("engine start error: %s", err)
		exitwithstatus.Message("engine start error: %s", err)
	}
	defer theEngine.Stop()

	// background processes that feed the engine
	processes := background.Processes{}

	if "" != theConfiguration.Inbox.Directory {
		in, err := inbox.New(logger.New("inbox"), theConfiguration.Inbox.Directory, theEngine)
		if nil != err {
			log.Criticalf("inbox initialise error: %s", err)
			exitwithstatus.Message("inbox initialise error: %s", err)
		}
		processes = append(processes, in)
	}

	if 0 != theConfiguration.statisticsInterval {
		processes = append(processes, newStatistics(logger.New("statistics"), theEngine, theConfiguration.statisticsInterval))
	}

	// if memory logging enabled
	if len(options["memory-stats"]) > 0 {
		processes = append(processes, &memoryStatistics{})
	}

	running := background.Start(processes, nil)
	defer running.Stop()

	// start up the rpc background processes
	err = rpc.Initialise(&theConfiguration.ClientRPC, &theConfiguration.HttpsRPC, version, theEngine)
	if nil != err {
		log.Criticalf("rpc initialise error: %s", err)
		exitwithstatus.Message("rpc initialise error: %s", err)
	}
	defer rpc.Finalise()

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	log.Infof("received signal: %v", sig)
	if 0 == len(options["quiet"]) {
		fmt.Printf("\nreceived signal: %v\n", sig)
		fmt.Printf("\nshutting down…\n")
	}

	log.Info("shutting down…")
}
