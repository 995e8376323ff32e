// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a server address in format [host]:[port]
//	-c/-config json file path with configs
//	-master-secret hex-encoded keyring master secret
//	-keyring-context keyring derivation context label
//	-db-host/-db-port/-db-user/-db-password/-db-name database descriptor
//	-session-duration session token lifetime (e.g., "24h")
//	-token-validity single-use token lifetime (e.g., "1h")
//	-request-timeout request timeout (e.g., "30s", "1m")
func ParseFlags() *StructuredConfig {
	var serverAddress NetAddress
	var jsonConfigPath string
	var masterSecret string
	var keyringContext string
	var dbHost, dbUser, dbPassword, dbName string
	var dbPort int
	var sessionDuration time.Duration
	var tokenValidity time.Duration
	var requestTimeout time.Duration

	flag.Var(&serverAddress, "a", "Net address host:port")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.StringVar(&masterSecret, "master-secret", "", "Hex-encoded keyring master secret")
	flag.StringVar(&keyringContext, "keyring-context", "", "Keyring derivation context label")
	flag.StringVar(&dbHost, "db-host", "", "Database host")
	flag.IntVar(&dbPort, "db-port", 0, "Database port")
	flag.StringVar(&dbUser, "db-user", "", "Database user")
	flag.StringVar(&dbPassword, "db-password", "", "Database password")
	flag.StringVar(&dbName, "db-name", "", "Database name")
	flag.DurationVar(&sessionDuration, "session-duration", 0, "Session token duration (e.g., 24h)")
	flag.DurationVar(&tokenValidity, "token-validity", 0, "Single-use token validity (e.g., 1h)")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")

	flag.Parse()

	return &StructuredConfig{
		App: App{
			MasterSecret:    masterSecret,
			KeyringContext:  keyringContext,
			SessionDuration: sessionDuration,
			TokenValidity:   tokenValidity,
		},
		Storage: Storage{
			DB: DB{
				Host:     dbHost,
				Port:     dbPort,
				User:     dbUser,
				Password: dbPassword,
				Database: dbName,
			},
		},
		Server: Server{
			HTTPAddress:    serverAddress.String(),
			RequestTimeout: requestTimeout,
		},
		JSONFilePath: jsonConfigPath,
	}
}

// String returns the address in "host:port" form, or "" when both parts are
// zero-valued. It implements flag.Value.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// Set parses a "host:port" string into the receiver. It implements
// flag.Value.
func (a *NetAddress) Set(s string) error {
	hp := strings.Split(s, ":")
	if len(hp) != 2 {
		return errors.New("address must be in format host:port")
	}

	port, err := strconv.Atoi(hp[1])
	if err != nil {
		return err
	}

	a.Host = hp[0]
	a.Port = port
	return nil
}
