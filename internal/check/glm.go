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

// Package check asserts the structure of GLM responses.
package check

import (
	"fmt"
	"math"
	"strings"

	"github.com/thestormforge/glmfuzz/internal/h2o"
	"github.com/thestormforge/glmfuzz/internal/params"
	"github.com/thestormforge/glmfuzz/internal/trial"
	"github.com/tidwall/gjson"
)

// Expected describes what is known ahead of time about the model
type Expected struct {
	// Column is the feature column whose coefficient must be present
	Column string `json:"column,omitempty"`
}

// Error lists every structural problem found in a response
type Error struct {
	Problems []string
}

func (e *Error) Error() string {
	return "malformed GLM response: " + strings.Join(e.Problems, "; ")
}

// Checker validates a GLM response against the request that produced it
type Checker interface {
	Check(result *h2o.GLMResult, expected *Expected, request trial.Assignments) ([]string, error)
}

// CheckerFunc adapts a function to the Checker interface
type CheckerFunc func(*h2o.GLMResult, *Expected, trial.Assignments) ([]string, error)

// Check calls the function
func (f CheckerFunc) Check(result *h2o.GLMResult, expected *Expected, request trial.Assignments) ([]string, error) {
	return f(result, expected, request)
}

// SimpleCheckGLM checks that the response carries the training error details and statistics expected for
// the request. Problems that do not invalidate the response are returned as warnings.
func SimpleCheckGLM(result *h2o.GLMResult, expected *Expected, request trial.Assignments) ([]string, error) {
	var warnings []string
	e := &Error{}
	fail := func(format string, args ...interface{}) { e.Problems = append(e.Problems, fmt.Sprintf(format, args...)) }

	if result == nil || len(result.Raw) == 0 {
		fail("empty response")
		return nil, e
	}
	if !gjson.ValidBytes(result.Raw) {
		fail("response is not valid JSON")
		return nil, e
	}

	if msg := result.Get("error"); msg.Exists() {
		fail("response reports an error: %s", msg.String())
	}

	model := result.Get("GLMModel")
	if !model.IsObject() {
		fail("missing GLMModel")
		return nil, e
	}

	for _, w := range model.Get("warnings").Array() {
		warnings = append(warnings, w.String())
	}

	coefficients := model.Get("coefficients")
	switch {
	case !coefficients.IsObject():
		fail("missing coefficients")
	case !coefficients.Get("Intercept").Exists():
		fail("missing Intercept coefficient")
	}
	coefficients.ForEach(func(name, c gjson.Result) bool {
		if v, ok := number(c); !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			fail("coefficient %s is not finite: %s", name.String(), c.Raw)
		}
		return true
	})

	if expected != nil && expected.Column != "" {
		c := coefficients.Get(gjsonEscape(expected.Column))
		if !c.Exists() {
			fail("missing coefficient for column %s", expected.Column)
		} else if v, _ := number(c); math.Abs(v) < 1e-18 {
			warnings = append(warnings, fmt.Sprintf("coefficient for column %s is effectively zero: %g", expected.Column, v))
		}
	}

	validations := model.Get("validations").Array()
	if len(validations) == 0 {
		fail("missing validations")
		return warnings, e.orNil()
	}

	// The training error details
	v := validations[0]
	for _, field := range []string{"err", "nullDev", "resDev"} {
		if _, ok := number(v.Get(field)); !ok {
			fail("validation is missing %s", field)
		}
	}

	if xval, ok := request.Int64(params.CrossVal); ok && xval > 1 {
		folds := v.Get("xval")
		switch {
		case !folds.IsArray():
			fail("missing cross validation models for xval=%d", xval)
		case int64(len(folds.Array())) != xval:
			fail("expected %d cross validation models, got %d", xval, len(folds.Array()))
		}
	}

	return warnings, e.orNil()
}

func (e *Error) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// number accepts JSON numbers and the string encodings used for non-finite values
func number(r gjson.Result) (float64, bool) {
	switch r.Type {
	case gjson.Number:
		return r.Float(), true
	case gjson.String:
		switch r.Str {
		case "NaN":
			return math.NaN(), true
		case "Infinity":
			return math.Inf(1), true
		case "-Infinity":
			return math.Inf(-1), true
		}
	}
	return 0, false
}

func gjsonEscape(path string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return r.Replace(path)
}
