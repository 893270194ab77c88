// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package publish

import (
	"github.com/bitmark-inc/logger"

	"github.com/truemark/skgd/background"
	"github.com/truemark/skgd/messagebus"
)

type Sender = sender

// Broadcaster - test handle for an unbound broadcaster
type Broadcaster struct {
	brdc *broadcaster
}

func NewBroadcaster(queue *messagebus.Queue, sockets ...Sender) *Broadcaster {
	return &Broadcaster{
		brdc: &broadcaster{
			log:     logger.New("broadcaster"),
			queue:   queue,
			sockets: sockets,
		},
	}
}

func (b *Broadcaster) Start() *background.T {
	return background.Start(background.Processes{b.brdc}, nil)
}

func (b *Broadcaster) Sent() uint64 {
	return b.brdc.sent.Uint64()
}

func (b *Broadcaster) Errors() uint64 {
	return b.brdc.errors.Uint64()
}
