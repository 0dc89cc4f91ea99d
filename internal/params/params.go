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

// Package params defines the space of GLM request parameters explored by the fuzzer.
package params

import "sort"

// Well known parameter names
const (
	Response       = "Y"
	Feature        = "X"
	ExcludeFeature = "glm_-X"
	Family         = "family"
	Link           = "link"
	CrossVal       = "xval"
	Threshold      = "threshold"
	Norm           = "norm"
	Lambda         = "glm_lambda"
	Lambda1        = "lambda1"
	Lambda2        = "lambda2"
	Rho            = "rho"
	Alpha          = "alpha"
	BetaEpsilon    = "beta_eps"
	Case           = "case"
	MaxIterations  = "max_iter"
	Weight         = "weight"
)

// Options are the capability switches that select a parameter table
type Options struct {
	// RichParameters selects the newer request format with split regularization knobs
	RichParameters bool `json:"richParameters,omitempty"`
	// UnstableLinks includes the link functions known to make the solver diverge for some families
	UnstableLinks bool `json:"unstableLinks,omitempty"`
}

// Space maps a parameter name to its ordered candidate values
type Space map[string][]Value

// Names returns the parameter names in a stable order
func (s Space) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Contains checks that the value is one of the declared candidates for the named parameter
func (s Space) Contains(name string, v Value) bool {
	for _, c := range s[name] {
		if c.Equal(v) {
			return true
		}
	}
	return false
}

// DefineParams returns the fuzzing space for a single GLM request. Nothing here checks that a
// combination is legal (alpha outside [-1, 1.8] and friends are sent as-is), that is for the
// service to decide.
func DefineParams(opts Options) Space {
	// threshold and family never get the null sentinel: null is illegal for threshold and the
	// only family whose responses carry training error details is poisson
	s := Space{
		Response:       {Int(54)},
		Feature:        ints(0, 1, 15, 33, 34),
		ExcludeFeature: {Null, String("40:53")},
		Family:         {String("poisson")},
		CrossVal:       ints(2, 3, 4, 9, 15),
		Threshold:      floats(0.1, 0.5, 0.7, 0.9),
		Rho:            append([]Value{Null}, floats(1e-4, 1, 10, 1e4)...),
		Alpha:          {Null, Int(-1), Int(0), Int(1), Float(1.8)},
	}

	if !opts.RichParameters {
		s[Norm] = strs("L1", "L2")
		s[Lambda] = lambdas()
		return s
	}

	s[Norm] = strs("L1", "L2", "ELASTIC")
	s[Lambda1] = lambdas()
	s[Lambda2] = lambdas()
	s[BetaEpsilon] = []Value{Null, Float(0.0001)}
	s[Case] = ints(1, 2, 3, 4, 5, 6, 7)
	s[MaxIterations] = []Value{Null, Int(10)}
	s[Weight] = []Value{Null, Int(1), Int(2), Int(4)}

	if opts.UnstableLinks {
		s[Link] = append([]Value{Null}, strs("logit", "identity", "log", "inverse")...)
	}

	return s
}

func lambdas() []Value {
	return append([]Value{Null}, floats(1e-8, 1e-4, 1, 10, 1e4)...)
}

func ints(vs ...int64) []Value {
	r := make([]Value, len(vs))
	for i := range vs {
		r[i] = Int(vs[i])
	}
	return r
}

func floats(vs ...float64) []Value {
	r := make([]Value, len(vs))
	for i := range vs {
		r[i] = Float(vs[i])
	}
	return r
}

func strs(vs ...string) []Value {
	r := make([]Value, len(vs))
	for i := range vs {
		r[i] = String(vs[i])
	}
	return r
}
