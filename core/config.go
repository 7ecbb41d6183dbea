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
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loadFromFile loads the YAML config file. A missing file is not an error, since every key has a default.
func loadFromFile(configMap *koanf.Koanf, path string) error {
	if path == "" {
		return nil
	}
	err := configMap.Load(file.Provider(path), yaml.Parser())
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("unable to load config file (file=%s): %w", path, err)
}

// loadFromEnv loads NUTS_ prefixed environment variables, e.g. NUTS_ISSUER_BASEURL becomes issuer.baseurl.
// Values containing a comma become lists.
func loadFromEnv(configMap *koanf.Koanf) error {
	provider := env.ProviderWithValue(defaultPrefix, defaultDelimiter, func(rawKey string, rawValue string) (string, interface{}) {
		key := envKey(rawKey)
		if !strings.Contains(rawValue, configValueListSeparator) {
			return key, rawValue
		}
		values := strings.Split(rawValue, configValueListSeparator)
		for i := range values {
			values[i] = strings.TrimSpace(values[i])
		}
		return key, values
	})
	return configMap.Load(provider, nil)
}

func envKey(rawKey string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(rawKey, defaultPrefix)), "_", defaultDelimiter)
}

// loadDefaultsFromFlagset loads the default value of every flag into an empty config map.
func loadDefaultsFromFlagset(configMap *koanf.Koanf, flags *pflag.FlagSet) error {
	return configMap.Load(posflag.Provider(flags, defaultDelimiter, nil), nil)
}

// loadFromFlagSet loads the flags set on the command line, overriding file and environment.
// Flags left at their default don't overwrite keys already loaded.
func loadFromFlagSet(configMap *koanf.Koanf, flags *pflag.FlagSet) error {
	return configMap.Load(posflag.Provider(flags, defaultDelimiter, configMap), nil)
}
