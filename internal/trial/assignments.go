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

// Package trial builds the randomized GLM requests issued by the fuzzer.
package trial

import (
	"net/url"
	"sort"
	"strings"

	"github.com/thestormforge/glmfuzz/internal/params"
)

// Assignments is the realized set of parameters for a single GLM request
type Assignments map[string]params.Value

// Baseline returns the mandatory request parameters every trial starts from. The cross validation
// count is always present so the response carries training error details.
func Baseline() Assignments {
	return Assignments{
		params.Response: params.Int(54),
		params.CrossVal: params.Int(3),
		params.Family:   params.String("poisson"),
		params.Lambda:   params.Float(1e-4),
		params.Case:     params.Int(1),
	}
}

// Merge assigns a value, replacing any earlier assignment for the same name. The null sentinel
// means "service default": the name reverts to its baseline value, or is removed so nothing is sent.
func (a Assignments) Merge(name string, v params.Value) {
	if !v.IsNull() {
		a[name] = v
		return
	}
	if b, ok := Baseline()[name]; ok {
		a[name] = b
		return
	}
	delete(a, name)
}

// Copy returns an independent copy of the assignments
func (a Assignments) Copy() Assignments {
	c := make(Assignments, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

// Names returns the assigned parameter names in a stable order
func (a Assignments) Names() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Int64 returns the named assignment as an integer and whether it was present
func (a Assignments) Int64(name string) (int64, bool) {
	v, ok := a[name]
	if !ok || v.IsNull() {
		return 0, false
	}
	return v.Int64Value(), true
}

// Encode renders the assignments as query parameters
func (a Assignments) Encode(q url.Values) {
	for name, v := range a {
		if v.IsNull() {
			continue
		}
		q.Set(name, v.String())
	}
}

// String renders the assignments for reports, e.g. "{'Y': 54, 'family': 'poisson'}"
func (a Assignments) String() string {
	sb := strings.Builder{}
	sb.WriteRune('{')
	for i, name := range a.Names() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("'" + name + "': ")
		v := a[name]
		if v.Kind == params.KindString {
			sb.WriteString("'" + v.StrVal + "'")
		} else {
			sb.WriteString(v.String())
		}
	}
	sb.WriteRune('}')
	return sb.String()
}
