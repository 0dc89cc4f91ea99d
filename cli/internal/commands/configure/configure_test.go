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

package configure

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thestormforge/glmfuzz/internal/config"
)

func loadConfig(t *testing.T, filename string) *config.GLMFuzzConfig {
	cfg := &config.GLMFuzzConfig{Filename: filename}
	require.NoError(t, cfg.Load())
	return cfg
}

func TestView(t *testing.T) {
	cfg := loadConfig(t, filepath.Join(t.TempDir(), "config"))
	cfg.Overrides.Server.Token = "s3cr3t"

	cases := []struct {
		desc     string
		args     []string
		contains []string
	}{
		{
			desc:     "yaml",
			contains: []string{"trials: 20", "timeout: 2m0s", "token: REDACTED", "mode: remote"},
		},
		{
			desc:     "json",
			args:     []string{"-o", "json"},
			contains: []string{`"trials": 20`, `"address": "127.0.0.1:54321"`},
		},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			out := &bytes.Buffer{}
			cmd := NewCommand(&Options{Config: cfg})
			cmd.SetOut(out)
			cmd.SetArgs(c.args)
			require.NoError(t, cmd.Execute())
			for _, s := range c.contains {
				assert.Contains(t, out.String(), s)
			}
			assert.NotContains(t, out.String(), "s3cr3t")
		})
	}
}

func TestSet(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "glmfuzz", "config")

	cmd := NewCommand(&Options{Config: loadConfig(t, filename)})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"set", "fuzz.trials=50"})
	require.NoError(t, cmd.Execute())

	cmd = NewCommand(&Options{Config: loadConfig(t, filename)})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"set", "cluster.mode", "local"})
	require.NoError(t, cmd.Execute())

	out := &bytes.Buffer{}
	cmd = NewCommand(&Options{Config: loadConfig(t, filename)})
	cmd.SetOut(out)
	cmd.SetArgs([]string{"view", "--raw"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "trials: 50")
	assert.Contains(t, out.String(), "mode: local")
	assert.NotContains(t, out.String(), "address")
}

func TestSetUnknown(t *testing.T) {
	cmd := NewCommand(&Options{Config: loadConfig(t, filepath.Join(t.TempDir(), "config"))})
	cmd.SilenceUsage = true
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"set", "fuzz.bogus", "1"})
	assert.Error(t, cmd.Execute())
}
