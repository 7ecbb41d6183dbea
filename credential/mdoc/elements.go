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

package mdoc

import (
	"encoding/base64"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// elementCodec converts the JSON representation of a data element into its mdoc representation.
type elementCodec func(value interface{}) (interface{}, error)

// elementCodecs holds the data elements of ISO 18013-5 (mDL) and the EU PID that are not represented as generic JSON in CBOR.
var elementCodecs = map[string]elementCodec{
	"birth_date":           fullDateElement,
	"issue_date":           fullDateElement,
	"expiry_date":          fullDateElement,
	"portrait":             bytesElement,
	"signature_usual_mark": bytesElement,
	"driving_privileges":   drivingPrivilegesElement,
}

// ElementValue converts the JSON value of the data element with the given identifier into the value that is encoded in CBOR.
// Dates become full-date (tag 1004), designated byte fields become byte strings, other values are mapped generically.
func ElementValue(identifier string, value interface{}) (interface{}, error) {
	if codec, ok := elementCodecs[identifier]; ok {
		result, err := codec(value)
		if err != nil {
			return nil, fmt.Errorf("invalid data element %s: %w", identifier, err)
		}
		return result, nil
	}
	return genericElement(value), nil
}

func genericElement(value interface{}) interface{} {
	switch v := value.(type) {
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return int64(v)
		}
		return v
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, item := range v {
			result[key] = genericElement(item)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = genericElement(item)
		}
		return result
	}
	return value
}

func fullDateElement(value interface{}) (interface{}, error) {
	str, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected date string, got %T", value)
	}
	if instant, err := time.Parse(time.RFC3339, str); err == nil {
		str = instant.UTC().Format(time.DateOnly)
	}
	if _, err := time.Parse(time.DateOnly, str); err != nil {
		return nil, fmt.Errorf("invalid full-date: %s", str)
	}
	return cbor.Tag{Number: tagFullDate, Content: str}, nil
}

func bytesElement(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		if data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(v, "=")); err == nil {
			return data, nil
		}
		return base64.StdEncoding.DecodeString(v)
	case []interface{}:
		result := make([]byte, len(v))
		for i, item := range v {
			number, ok := item.(float64)
			if !ok || number != math.Trunc(number) {
				return nil, fmt.Errorf("byte array contains non-integer at index %d", i)
			}
			// signed bytes are accepted as well
			if number < math.MinInt8 || number > math.MaxUint8 {
				return nil, fmt.Errorf("byte array value out of range at index %d", i)
			}
			result[i] = byte(int(number))
		}
		return result, nil
	}
	return nil, fmt.Errorf("expected byte array, got %T", value)
}

func drivingPrivilegesElement(value interface{}) (interface{}, error) {
	privileges, ok := value.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected array, got %T", value)
	}
	result := make([]interface{}, len(privileges))
	for i, item := range privileges {
		privilege, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("driving privilege %d is not an object", i)
		}
		converted := make(map[string]interface{}, len(privilege))
		for key, field := range privilege {
			if key == "issue_date" || key == "expiry_date" {
				date, err := fullDateElement(field)
				if err != nil {
					return nil, fmt.Errorf("driving privilege %d: %w", i, err)
				}
				converted[key] = date
				continue
			}
			converted[key] = genericElement(field)
		}
		result[i] = converted
	}
	return result, nil
}
