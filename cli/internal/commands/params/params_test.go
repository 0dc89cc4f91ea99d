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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thestormforge/glmfuzz/internal/params"
)

func TestParams(t *testing.T) {
	cases := []struct {
		desc     string
		args     []string
		contains []string
		missing  []string
	}{
		{
			desc:     "legacy",
			contains: []string{params.Threshold, params.Family},
			missing:  []string{params.Link},
		},
		{
			desc:     "rich",
			args:     []string{"--rich-parameters"},
			contains: []string{params.Alpha, params.Lambda1},
			missing:  []string{params.Link},
		},
		{
			desc:     "unstable links",
			args:     []string{"--rich-parameters", "--unstable-links"},
			contains: []string{params.Link},
		},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			out := &bytes.Buffer{}
			cmd := NewCommand(&Options{})
			cmd.SetOut(out)
			cmd.SetArgs(c.args)
			require.NoError(t, cmd.Execute())

			space := make(map[string][]params.Value)
			require.NoError(t, json.Unmarshal(out.Bytes(), &space))
			for _, name := range c.contains {
				assert.Contains(t, space, name)
			}
			for _, name := range c.missing {
				assert.NotContains(t, space, name)
			}
			assert.Equal(t, []params.Value{params.String("poisson")}, space[params.Family])
		})
	}
}

func TestParamsSample(t *testing.T) {
	sample := func() []byte {
		out := &bytes.Buffer{}
		cmd := NewCommand(&Options{})
		cmd.SetOut(out)
		cmd.SetArgs([]string{"--sample", "4", "--seed", "21"})
		require.NoError(t, cmd.Execute())
		return out.Bytes()
	}

	first := sample()
	var draws []struct {
		Request map[string]params.Value `json:"request"`
	}
	require.NoError(t, json.Unmarshal(first, &draws))
	require.Len(t, draws, 4)
	for _, d := range draws {
		assert.Equal(t, params.String("poisson"), d.Request[params.Family])
		assert.Equal(t, params.Int(54), d.Request[params.Response])
	}

	assert.Equal(t, first, sample(), "the same seed must draw the same requests")
}
