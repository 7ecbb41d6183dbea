/*
 * Copyright (C) 2026 Nuts community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

const defaultConfigFile = "issuer.yaml"
const configFileFlag = "configfile"

const defaultPrefix = "NUTS_"
const defaultDelimiter = "."
const configValueListSeparator = ","

// ServerConfig has global server settings.
type ServerConfig struct {
	Verbosity    string        `koanf:"verbosity"`
	LoggerFormat string        `koanf:"loggerformat"`
	Strictmode   bool          `koanf:"strictmode"`
	Datadir      string        `koanf:"datadir"`
	HTTP         HTTPConfig    `koanf:"http"`
	Tracing      TracingConfig `koanf:"tracing"`
	configMap    *koanf.Koanf
}

// HTTPConfig contains configuration for the HTTP interface, e.g. address.
type HTTPConfig struct {
	// Address holds the interface address the HTTP service must be bound to, in the format of `interface:port` (e.g. localhost:5555).
	Address string `koanf:"address"`
	// CORS holds the configuration for Cross Origin Resource Sharing.
	CORS HTTPCORSConfig `koanf:"cors"`
}

// HTTPCORSConfig contains configuration for Cross Origin Resource Sharing.
type HTTPCORSConfig struct {
	// Origin specifies the AllowOrigin option. If no origins are given CORS is considered to be disabled.
	Origin []string `koanf:"origin"`
}

// Enabled returns whether CORS is enabled according to this configuration.
func (cors HTTPCORSConfig) Enabled() bool {
	return len(cors.Origin) > 0
}

// NewServerConfig creates an initialized empty server config
func NewServerConfig() *ServerConfig {
	return &ServerConfig{
		configMap: koanf.New(defaultDelimiter),
	}
}

// loadConfigMap fills the config map in order of precedence: flag defaults, config file, environment, flags.
func (ngc *ServerConfig) loadConfigMap(flags *pflag.FlagSet) error {
	loaders := []func() error{
		func() error { return loadDefaultsFromFlagset(ngc.configMap, flags) },
		func() error { return loadFromFile(ngc.configMap, resolveConfigFilePath(flags)) },
		func() error { return loadFromEnv(ngc.configMap) },
		func() error { return loadFromFlagSet(ngc.configMap, flags) },
	}
	for _, load := range loaders {
		if err := load(); err != nil {
			return err
		}
	}
	return nil
}

// Load loads the server config and applies the log level and format.
func (ngc *ServerConfig) Load(flags *pflag.FlagSet) error {
	if err := ngc.loadConfigMap(flags); err != nil {
		return err
	}
	if err := ngc.configMap.UnmarshalWithConf("", ngc, koanf.UnmarshalConf{FlatPaths: false}); err != nil {
		return err
	}
	return ngc.configureLogger()
}

func (ngc *ServerConfig) configureLogger() error {
	level, err := logrus.ParseLevel(ngc.Verbosity)
	if err != nil {
		return err
	}
	var formatter logrus.Formatter
	switch ngc.LoggerFormat {
	case "text":
		formatter = &logrus.TextFormatter{}
	case "json":
		formatter = &logrus.JSONFormatter{}
	default:
		return fmt.Errorf("invalid formatter: '%s'", ngc.LoggerFormat)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(formatter)
	return nil
}

// resolveConfigFilePath resolves the path of the config file using the following sources:
// 1. commandline params (using the given flags)
// 2. environment vars,
// 3. default location.
func resolveConfigFilePath(flags *pflag.FlagSet) string {
	k := koanf.New(defaultDelimiter)

	e := env.Provider(defaultPrefix, defaultDelimiter, envKey)
	// can't return error
	_ = k.Load(e, nil)

	// load cmd flags, without a parser, no error can be returned
	_ = k.Load(posflag.Provider(flags, defaultDelimiter, k), nil)

	return k.String(configFileFlag)
}

// FlagSet returns the default server flags
func FlagSet() *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("server", pflag.ContinueOnError)
	flagSet.String(configFileFlag, defaultConfigFile, "Issuer config file")
	flagSet.String("verbosity", "info", "Log level (trace, debug, info, warn, error)")
	flagSet.String("loggerformat", "text", "Log format (text, json)")
	flagSet.Bool("strictmode", true, "When set, insecure settings are forbidden.")
	flagSet.String("datadir", "./data", "Directory where the issuer stores its files.")
	flagSet.String("http.address", ":8080", "Address and port the server will be listening to")
	flagSet.StringSlice("http.cors.origin", nil, "When set, enables CORS from the specified origins.")
	flagSet.String("tracing.endpoint", "", "OTLP/gRPC collector (host:port) traces and logs are exported to. Tracing is disabled when not set.")
	flagSet.Bool("tracing.insecure", false, "Connect to the OTLP collector without TLS.")
	return flagSet
}

// redactedKeys are config keys (by last path segment) whose values are not printed.
var redactedKeys = map[string]bool{
	"password":   true,
	"token":      true,
	"connection": true,
}

// PrintConfig returns the loaded config as "key -> value" lines, with secrets redacted.
func (ngc *ServerConfig) PrintConfig() string {
	printed := koanf.New(defaultDelimiter)
	for key, value := range ngc.configMap.All() {
		segments := strings.Split(key, defaultDelimiter)
		if redactedKeys[segments[len(segments)-1]] && value != "" {
			value = "(redacted)"
		}
		_ = printed.Set(key, value)
	}
	return printed.Sprint()
}

// InjectIntoEngine takes the loaded config and sets the engine's config struct
func (ngc *ServerConfig) InjectIntoEngine(e Injectable) error {
	if ngc.configMap == nil {
		return errors.New("config not loaded")
	}
	return unmarshalRecursive([]string{strings.ToLower(e.Name())}, e.Config(), ngc.configMap)
}

// unmarshalRecursive unmarshals the subtree at path into config, then descends into every koanf tagged struct field,
// since koanf doesn't decode nested structs of pointers on its own.
func unmarshalRecursive(path []string, config interface{}, configMap *koanf.Koanf) error {
	if err := configMap.UnmarshalWithConf(strings.Join(path, defaultDelimiter), config, koanf.UnmarshalConf{FlatPaths: false}); err != nil {
		return err
	}
	value := reflect.ValueOf(config)
	if value.Kind() == reflect.Ptr {
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil
	}
	for i := 0; i < value.NumField(); i++ {
		field := value.Type().Field(i)
		tag := field.Tag.Get("koanf")
		if tag == "" || indirectKind(field.Type) != reflect.Struct || !field.IsExported() {
			continue
		}
		if err := unmarshalRecursive(append(path, tag), value.Field(i).Addr().Interface(), configMap); err != nil {
			return err
		}
	}
	return nil
}

func indirectKind(ty reflect.Type) reflect.Kind {
	if ty.Kind() == reflect.Ptr {
		return ty.Elem().Kind()
	}
	return ty.Kind()
}
