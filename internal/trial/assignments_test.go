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

package trial

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/thestormforge/glmfuzz/internal/params"
)

func TestAssignments_Merge(t *testing.T) {
	cases := []struct {
		desc     string
		picks    []Pick
		expected Assignments
	}{
		{
			desc:     "no picks",
			expected: Baseline(),
		},
		{
			desc:  "overwrite baseline",
			picks: []Pick{{Name: "xval", Value: params.Int(9)}},
			expected: Assignments{
				"Y": params.Int(54), "xval": params.Int(9), "family": params.String("poisson"),
				"glm_lambda": params.Float(1e-4), "case": params.Int(1),
			},
		},
		{
			desc:     "null keeps baseline",
			picks:    []Pick{{Name: "glm_lambda", Value: params.Null}},
			expected: Baseline(),
		},
		{
			desc: "null removes earlier pick",
			picks: []Pick{
				{Name: "rho", Value: params.Float(10)},
				{Name: "rho", Value: params.Null},
			},
			expected: Baseline(),
		},
		{
			desc: "null restores baseline",
			picks: []Pick{
				{Name: "glm_lambda", Value: params.Float(10)},
				{Name: "glm_lambda", Value: params.Null},
			},
			expected: Baseline(),
		},
		{
			desc: "pick after null",
			picks: []Pick{
				{Name: "alpha", Value: params.Null},
				{Name: "alpha", Value: params.Int(1)},
			},
			expected: Assignments{
				"Y": params.Int(54), "xval": params.Int(3), "family": params.String("poisson"),
				"glm_lambda": params.Float(1e-4), "case": params.Int(1), "alpha": params.Int(1),
			},
		},
		{
			desc: "last write wins",
			picks: []Pick{
				{Name: "norm", Value: params.String("L1")},
				{Name: "norm", Value: params.String("L2")},
			},
			expected: Assignments{
				"Y": params.Int(54), "xval": params.Int(3), "family": params.String("poisson"),
				"glm_lambda": params.Float(1e-4), "case": params.Int(1), "norm": params.String("L2"),
			},
		},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			a := Baseline()
			for _, p := range c.picks {
				a.Merge(p.Name, p.Value)
			}
			assert.Equal(t, c.expected, a)
		})
	}
}

func TestAssignments_Encode(t *testing.T) {
	a := Baseline()
	a["glm_-X"] = params.String("40:53")
	a["beta_eps"] = params.Null

	q := url.Values{}
	a.Encode(q)
	assert.Equal(t, "54", q.Get("Y"))
	assert.Equal(t, "0.0001", q.Get("glm_lambda"))
	assert.Equal(t, "40:53", q.Get("glm_-X"))
	_, ok := q["beta_eps"]
	assert.False(t, ok)
}

func TestAssignments_String(t *testing.T) {
	a := Assignments{"Y": params.Int(54), "family": params.String("poisson")}
	assert.Equal(t, "{'Y': 54, 'family': 'poisson'}", a.String())
}

func TestAssignments_Copy(t *testing.T) {
	a := Baseline()
	c := a.Copy()
	c.Merge("xval", params.Int(2))
	assert.Equal(t, params.Int(3), a["xval"])

	xval, ok := c.Int64("xval")
	assert.True(t, ok)
	assert.Equal(t, int64(2), xval)
	_, ok = c.Int64("rho")
	assert.False(t, ok)
}
