// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"
)

type metadata struct {
	connect     string
	fingerprint string
	verbose     bool
	e           io.Writer
	w           io.Writer
}

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

func main() {
	app := newApp(os.Stdout, os.Stderr)

	err := app.Run(os.Args)
	if nil != err {
		fmt.Fprintf(app.ErrWriter, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}

func newApp(w io.Writer, e io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "skg-cli"
	app.Usage = "query and feed a swarm knowledge graph daemon"
	app.Version = version
	app.HideVersion = true

	app.Writer = w
	app.ErrWriter = e

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: " verbose result",
		},
		cli.StringFlag{
			Name:   "connect, c",
			Value:  "127.0.0.1:2130",
			Usage:  " skgd RPC `HOST:PORT`",
			EnvVar: "SKG_CONNECT",
		},
		cli.StringFlag{
			Name:   "fingerprint, f",
			Value:  "",
			Usage:  " pin the server certificate SHA3-256 `HEX`",
			EnvVar: "SKG_FINGERPRINT",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "ingest",
			Usage:     "submit a certificate file",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "file, F",
					Value: "",
					Usage: "*submission JSON `FILE`, \"-\" for stdin",
				},
				cli.StringFlag{
					Name:  "vault-txid, t",
					Value: "",
					Usage: " vault transaction `ID`, overrides the one in the file",
				},
			},
			Action: runIngest,
		},
		{
			Name:      "portfolio",
			Usage:     "certificates owned by a wallet with their drift",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "wallet, w",
					Value: "",
					Usage: "*wallet `ADDRESS`",
				},
			},
			Action: runPortfolio,
		},
		{
			Name:   "health",
			Usage:  "graph summary and run state",
			Action: runHealth,
		},
		{
			Name:      "transactions",
			Usage:     "newest transaction headers",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "count, n",
					Value: 10,
					Usage: " number of headers `COUNT`",
				},
			},
			Action: runTransactions,
		},
		{
			Name:      "duplicates",
			Usage:     "certificates sharing content with a serial",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "serial, s",
					Value: "",
					Usage: "*certificate `SERIAL`",
				},
			},
			Action: runDuplicates,
		},
		{
			Name:  "version",
			Usage: "display skg-cli version",
			Action: func(c *cli.Context) error {
				fmt.Fprintf(c.App.Writer, "%s\n", version)
				return nil
			},
		},
	}

	app.Before = func(c *cli.Context) error {
		c.App.Metadata["config"] = &metadata{
			connect:     c.GlobalString("connect"),
			fingerprint: c.GlobalString("fingerprint"),
			verbose:     c.GlobalBool("verbose"),
			e:           c.App.ErrWriter,
			w:           c.App.Writer,
		}
		return nil
	}

	return app
}
