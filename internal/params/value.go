/*
Copyright 2021 GramLabs, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package params

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind identifies which field of a Value is populated
type Kind int

const (
	// KindNull is the "unset" sentinel, the service chooses its own default
	KindNull Kind = iota
	// KindNumber is a JSON number
	KindNumber
	// KindString is a JSON string
	KindString
)

// Value is a candidate parameter value: a number, a string or the null sentinel.
type Value struct {
	Kind   Kind
	NumVal json.Number
	StrVal string
}

// Null is the sentinel meaning "let the service use its default"
var Null = Value{}

// Int returns the supplied value as a Value
func Int(val int64) Value {
	return Value{Kind: KindNumber, NumVal: json.Number(strconv.FormatInt(val, 10))}
}

// Float returns the supplied value as a Value
func Float(val float64) Value {
	return Value{Kind: KindNumber, NumVal: json.Number(strconv.FormatFloat(val, 'g', -1, 64))}
}

// String returns the supplied value as a Value
func String(val string) Value {
	return Value{Kind: KindString, StrVal: val}
}

// Parse interprets a command line token: "null" or "None" is the sentinel, anything with a finite numeric
// value is a number in the same form Int or Float would produce, everything else is a string.
func Parse(s string) Value {
	switch s {
	case "null", "None":
		return Null
	}
	if v, ok := number(s); ok {
		return v
	}
	return String(s)
}

// number normalizes a numeric token, non-finite values are not numbers in JSON
func number(s string) (Value, bool) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, false
	}
	return Float(f), true
}

// IsNull returns true for the unset sentinel
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// String coerces the value to the form it takes in a request query string.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return v.NumVal.String()
	case KindString:
		return v.StrVal
	}
	return "null"
}

// Int64Value coerces the value to an int64.
func (v Value) Int64Value() int64 {
	switch v.Kind {
	case KindNumber:
		if i, err := v.NumVal.Int64(); err == nil {
			return i
		}
		f, _ := v.NumVal.Float64()
		return int64(f)
	case KindString:
		i, _ := strconv.ParseInt(v.StrVal, 10, 64)
		return i
	}
	return 0
}

// Equal compares two values by kind and rendered form. Numbers are always rendered in their shortest
// form, so Parse("1e-4") and Float(0.0001) are the same candidate.
func (v Value) Equal(o Value) bool {
	return v.Kind == o.Kind && v.String() == o.String()
}

// MarshalJSON writes the value with the appropriate type.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return json.Marshal(v.NumVal)
	case KindString:
		return json.Marshal(v.StrVal)
	}
	return []byte("null"), nil
}

// UnmarshalJSON reads the value from a number, a string or null.
func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*v = Null
		return nil
	case b[0] == '"':
		v.Kind = KindString
		return json.Unmarshal(b, &v.StrVal)
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	nv, ok := number(n.String())
	if !ok {
		return fmt.Errorf("invalid number %q", n)
	}
	*v = nv
	return nil
}
