// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the esnitool configuration.
//
// Values come, in order of precedence, from command line flags bound by
// the caller, ESNIKEYS_* environment variables, the optional YAML config
// file and the defaults below.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of the environment variables we read.
const EnvPrefix = "ESNIKEYS"

// Keys used with viper.
const (
	KeyResolver   = "dns.resolver"
	KeyNetwork    = "dns.network"
	KeyDoHURL     = "dns.doh_url"
	KeyTimeout    = "dns.timeout"
	KeyPadding    = "dns.flags.padding"
	KeyDNSSec     = "dns.flags.dnssec"
	KeyNoVerify   = "output.no_verify"
	KeyHex        = "output.hex"
	KeyLogLevel   = "log.level"
	configName    = "esnitool"
	configType    = "yaml"
	configSubPath = ".config/esnitool"
)

// keyReplacer maps "dns.timeout" to ESNIKEYS_DNS_TIMEOUT.
var keyReplacer = strings.NewReplacer(".", "_")

// Config is a snapshot of the esnitool configuration.
type Config struct {
	// Resolver is the host:port of the DNS resolver.
	Resolver string

	// Network is "udp" or "tcp".
	Network string

	// DoHURL, when not empty, selects DNS-over-HTTPS instead of Resolver.
	DoHURL string

	// Timeout bounds the whole lookup.
	Timeout time.Duration

	// Padding enables RFC8467 block length padding.
	Padding bool

	// DNSSec requests DNSSEC signatures.
	DNSSec bool

	// NoVerify prints records whose checksum does not match.
	NoVerify bool

	// Hex prints the raw records instead of the decoded ones.
	Hex bool

	// LogLevel is the logrus level name.
	LogLevel string
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Resolver: "1.1.1.1:53",
		Network:  "udp",
		DoHURL:   "",
		Timeout:  10 * time.Second,
		LogLevel: "warn",
	}
}

func setDefaults() {
	def := Default()
	viper.SetDefault(KeyResolver, def.Resolver)
	viper.SetDefault(KeyNetwork, def.Network)
	viper.SetDefault(KeyDoHURL, def.DoHURL)
	viper.SetDefault(KeyTimeout, def.Timeout)
	viper.SetDefault(KeyPadding, def.Padding)
	viper.SetDefault(KeyDNSSec, def.DNSSec)
	viper.SetDefault(KeyNoVerify, def.NoVerify)
	viper.SetDefault(KeyHex, def.Hex)
	viper.SetDefault(KeyLogLevel, def.LogLevel)
}

// Init sets up viper. When cfgFile is empty we look for esnitool.yaml in
// $HOME/.config/esnitool and in the current directory, and a missing file
// is not an error.
func Init(cfgFile string) error {
	setDefaults()
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(keyReplacer)
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(configName)
		viper.SetConfigType(configType)
		viper.AddConfigPath("$HOME/" + configSubPath)
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			return nil
		}
		return err
	}
	return nil
}

// FromViper returns the configuration from the current viper settings.
func FromViper() Config {
	return Config{
		Resolver: viper.GetString(KeyResolver),
		Network:  viper.GetString(KeyNetwork),
		DoHURL:   viper.GetString(KeyDoHURL),
		Timeout:  viper.GetDuration(KeyTimeout),
		Padding:  viper.GetBool(KeyPadding),
		DNSSec:   viper.GetBool(KeyDNSSec),
		NoVerify: viper.GetBool(KeyNoVerify),
		Hex:      viper.GetBool(KeyHex),
		LogLevel: viper.GetString(KeyLogLevel),
	}
}
