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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefineParams(t *testing.T) {
	cases := []struct {
		desc     string
		opts     Options
		expected []string
	}{
		{
			desc:     "legacy",
			expected: []string{"X", "Y", "alpha", "family", "glm_-X", "glm_lambda", "norm", "rho", "threshold", "xval"},
		},
		{
			desc: "rich",
			opts: Options{RichParameters: true},
			expected: []string{"X", "Y", "alpha", "beta_eps", "case", "family", "glm_-X", "lambda1", "lambda2",
				"max_iter", "norm", "rho", "threshold", "weight", "xval"},
		},
		{
			desc: "rich with unstable links",
			opts: Options{RichParameters: true, UnstableLinks: true},
			expected: []string{"X", "Y", "alpha", "beta_eps", "case", "family", "glm_-X", "lambda1", "lambda2",
				"link", "max_iter", "norm", "rho", "threshold", "weight", "xval"},
		},
		{
			desc:     "unstable links ignored for legacy",
			opts:     Options{UnstableLinks: true},
			expected: []string{"X", "Y", "alpha", "family", "glm_-X", "glm_lambda", "norm", "rho", "threshold", "xval"},
		},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			s := DefineParams(c.opts)
			assert.Equal(t, c.expected, s.Names())
			for _, name := range s.Names() {
				assert.NotEmpty(t, s[name], name)
			}
		})
	}
}

func TestDefineParams_Candidates(t *testing.T) {
	s := DefineParams(Options{RichParameters: true})

	assert.Equal(t, []Value{String("poisson")}, s[Family])
	assert.Equal(t, []Value{Int(54)}, s[Response])
	assert.Len(t, s[Norm], 3)
	for _, v := range s[Threshold] {
		assert.False(t, v.IsNull(), "threshold must never be unset")
	}
	assert.True(t, s[Lambda1][0].IsNull())
	assert.True(t, s.Contains(Alpha, Float(1.8)))
	assert.True(t, s.Contains(Alpha, Int(-1)))
	assert.False(t, s.Contains(Alpha, Float(2)))
	assert.True(t, s.Contains(ExcludeFeature, Null))

	legacy := DefineParams(Options{})
	assert.Len(t, legacy[Norm], 2)
	assert.NotContains(t, legacy, Case)
}

func TestDefineParams_Independent(t *testing.T) {
	a := DefineParams(Options{})
	a[Feature][0] = Int(99)
	b := DefineParams(Options{})
	assert.Equal(t, Int(0), b[Feature][0])
}
