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

package mapping

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/google/uuid"
)

const lastFunction = "last"

// Call is the invocation of a data function from a mapping template.
type Call struct {
	Name    string
	Args    string
	Context Context
	// History holds the values produced by the other functions of the same mapping, by mapping key.
	History map[string]interface{}
	// Document is the credential document as mapped so far.
	Document map[string]interface{}
}

// Function produces the value for a mapping template.
type Function func(call Call) (interface{}, error)

var functions = map[string]Function{
	"uuid": func(_ Call) (interface{}, error) {
		return "urn:uuid:" + uuid.NewString(), nil
	},
	"issuerDid": func(call Call) (interface{}, error) {
		if call.Context.IssuerDID == "" {
			return nil, errors.New("issuer DID is unknown")
		}
		return call.Context.IssuerDID, nil
	},
	"subjectDid": func(call Call) (interface{}, error) {
		if call.Context.SubjectDID == "" {
			return nil, errors.New("subject DID is unknown")
		}
		return call.Context.SubjectDID, nil
	},
	"timestamp": func(call Call) (interface{}, error) {
		return formatTimestamp(call.Context.Now), nil
	},
	"timestamp-seconds": func(call Call) (interface{}, error) {
		return call.Context.Now.Unix(), nil
	},
	"timestamp-in":             relativeTimestamp(1, false),
	"timestamp-in-seconds":     relativeTimestamp(1, true),
	"timestamp-before":         relativeTimestamp(-1, false),
	"timestamp-before-seconds": relativeTimestamp(-1, true),
	lastFunction:               last,
}

func relativeTimestamp(sign time.Duration, seconds bool) Function {
	return func(call Call) (interface{}, error) {
		duration, err := ParseDuration(call.Args)
		if err != nil {
			return nil, err
		}
		instant := call.Context.Now.Add(sign * duration)
		if seconds {
			return instant.Unix(), nil
		}
		return formatTimestamp(instant), nil
	}
}

// last returns a value produced by another function of the same mapping, by its mapping key.
// Arguments starting with $ are evaluated as JSONPath against the mapped document.
func last(call Call) (interface{}, error) {
	if value, ok := call.History[call.Args]; ok {
		return value, nil
	}
	if strings.HasPrefix(call.Args, "$") {
		value, err := jsonpath.Get(call.Args, call.Document)
		if err != nil {
			return nil, fmt.Errorf("no value at %s: %w", call.Args, err)
		}
		return value, nil
	}
	return nil, fmt.Errorf("no such function in history: %s", call.Args)
}

func formatTimestamp(instant time.Time) string {
	return instant.UTC().Format(time.RFC3339)
}

var daysPattern = regexp.MustCompile(`^(\d+)d`)

// ParseDuration parses a duration such as 14d, 365d, 1d12h, 36h or 30m. Components may be separated by spaces.
func ParseDuration(input string) (time.Duration, error) {
	remainder := strings.ReplaceAll(strings.TrimSpace(input), " ", "")
	if remainder == "" {
		return 0, errors.New("missing duration")
	}
	var result time.Duration
	if match := daysPattern.FindStringSubmatch(remainder); match != nil {
		days, err := strconv.Atoi(match[1])
		if err != nil {
			return 0, fmt.Errorf("invalid duration %s: %w", input, err)
		}
		result = time.Duration(days) * 24 * time.Hour
		remainder = remainder[len(match[0]):]
	}
	if remainder != "" {
		duration, err := time.ParseDuration(remainder)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %s: %w", input, err)
		}
		result += duration
	}
	return result, nil
}
