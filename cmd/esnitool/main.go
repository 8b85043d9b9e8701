// SPDX-License-Identifier: GPL-3.0-or-later

// Command esnitool fetches and prints the ESNIKeys of a domain.
//
// Usage:
//
//	esnitool [--hex] [--doh URL | --resolver ADDR] [--no-verify] NAME
package main

import (
	"os"

	"github.com/bassosimone/esnikeys/internal/logger"
)

var log = logger.Get()

func main() {
	cmd, err := newRootCommand(os.Stdout)
	if err == nil {
		err = cmd.Execute()
	}
	if err != nil {
		log.WithError(err).Error("esnitool failed")
		os.Exit(1)
	}
}
