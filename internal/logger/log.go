// SPDX-License-Identifier: GPL-3.0-or-later

// Package logger provides the logrus logger used by esnitool.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// EnvLevel is the environment variable that overrides the log level. It is
// the same variable through which the config reads the "log.level" key.
const EnvLevel = "ESNIKEYS_LOG_LEVEL"

var (
	log  *logrus.Logger
	once sync.Once
)

func initialize() {
	once.Do(func() {
		log = logrus.New()
		log.SetOutput(os.Stderr)
		log.SetLevel(logrus.WarnLevel)
		setLevel(os.Getenv(EnvLevel))
	})
}

// Get returns the process-wide logger.
func Get() *logrus.Logger {
	initialize()
	return log
}

// SetLevel sets the log level by name. Empty or unknown names leave the
// level unchanged.
func SetLevel(name string) {
	initialize()
	setLevel(name)
}

func setLevel(name string) {
	switch strings.ToLower(name) {
	case "debug":
		log.SetOutput(os.Stderr)
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetOutput(os.Stderr)
		log.SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		log.SetOutput(os.Stderr)
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetOutput(os.Stderr)
		log.SetLevel(logrus.ErrorLevel)
	case "none", "off":
		log.SetOutput(io.Discard)
	}
}
