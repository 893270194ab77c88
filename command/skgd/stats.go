// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"runtime"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/truemark/skgd/engine"
)

const (
	memoryStatsDelay = 60 * time.Second
	mega             = 1048576
)

type healthReporter interface {
	Health() *engine.Health
}

// periodic log of the graph size and drift
type statistics struct {
	log      *logger.L
	engine   healthReporter
	interval time.Duration
}

func newStatistics(log *logger.L, e healthReporter, interval time.Duration) *statistics {
	return &statistics{
		log:      log,
		engine:   e,
		interval: interval,
	}
}

func (s *statistics) Run(args interface{}, shutdown <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-ticker.C:
			h := s.engine.Health()
			s.log.Infof(
				"mode: %s  nodes: %d  edges: %d  certificates: %d  global drift: %.4f  degraded: %v",
				h.Mode, h.Nodes, h.Edges, h.Certificates, h.GlobalDrift, h.Degraded,
			)
		}
	}
}

// periodic log of the Go runtime memory use
type memoryStatistics struct{}

func (ms *memoryStatistics) Run(args interface{}, shutdown <-chan struct{}) {

	log := logger.New("memory")

	ticker := time.NewTicker(memoryStatsDelay)
	defer ticker.Stop()

loop:
	for {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		text, err := json.Marshal(m)
		if nil != err {
			log.Errorf("marshal error: %s", err)
		} else {
			log.Debugf("stats: %s", text)
		}
		log.Infof("allocated: %d M  cumulative: %d M  OS virtual: %d M", m.Alloc/mega, m.TotalAlloc/mega, m.Sys/mega)

		select {
		case <-shutdown:
			break loop
		case <-ticker.C:
		}
	}
}
