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

package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thestormforge/glmfuzz/internal/cloud"
	"github.com/thestormforge/glmfuzz/internal/config"
	"github.com/thestormforge/glmfuzz/internal/driver"
	"github.com/thestormforge/glmfuzz/internal/h2o"
	"github.com/thestormforge/glmfuzz/internal/h2o/fake"
	"github.com/thestormforge/glmfuzz/internal/trial"
)

type fakeCluster struct {
	api      *fake.FakeAPI
	buildErr error
	built    bool
	tornDown bool
}

func (c *fakeCluster) BuildCloud(ctx context.Context, nodeCount int) (*cloud.Cloud, error) {
	c.built = true
	if c.buildErr != nil {
		return nil, c.buildErr
	}
	cs, _ := c.api.Cloud(ctx)
	return &cloud.Cloud{Address: "127.0.0.1:54321", API: c.api, Status: cs}, nil
}

func (c *fakeCluster) TearDown(ctx context.Context) error {
	c.tornDown = true
	return nil
}

func newOptions(t *testing.T, cluster cloud.Cluster) *Options {
	cfg := &config.GLMFuzzConfig{Filename: filepath.Join(t.TempDir(), "config")}
	require.NoError(t, cfg.Load())
	return &Options{Config: cfg, Cluster: cluster}
}

func writeDataset(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "covtype.data")
	require.NoError(t, ioutil.WriteFile(path, []byte("2596,51,3,258,0,510,221,232,148,6279,1,0,5\n"), 0644))
	return path
}

func TestRun(t *testing.T) {
	cluster := &fakeCluster{api: fake.NewFakeAPI()}
	o := newOptions(t, cluster)
	metricsFile := filepath.Join(t.TempDir(), "glmfuzz.prom")

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewCommand(o)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{"--trials", "3", "--seed", "9", "--dataset", writeDataset(t), "--metrics-file", metricsFile})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.True(t, cluster.tornDown)
	assert.Len(t, cluster.api.Requests(), 3)
	assert.Contains(t, out.String(), "parse end on ")
	assert.Contains(t, out.String(), "seed: 9")
	assert.Contains(t, out.String(), "Trial #2 completed")
	assert.Contains(t, errOut.String(), `"msg":"Parsed dataset"`)

	metrics, err := ioutil.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `glmfuzz_trials_total{result="completed"} 3`)
}

func TestRunFailure(t *testing.T) {
	api := fake.NewFakeAPI()
	api.GLMFunc = func(context.Context, string, trial.Assignments) (*h2o.GLMResult, error) {
		return nil, &h2o.Error{Type: h2o.ErrServiceFault, Message: "matrix is not positive definite"}
	}
	cluster := &fakeCluster{api: api}

	cmd := NewCommand(newOptions(t, cluster))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--dataset", writeDataset(t)})
	err := cmd.ExecuteContext(context.Background())

	var trialErr *driver.TrialError
	require.True(t, errors.As(err, &trialErr))
	assert.True(t, h2o.IsServiceFault(err))
	assert.True(t, cluster.tornDown, "cloud must be torn down after a failure")
}

func TestRunCloudFailure(t *testing.T) {
	cluster := &fakeCluster{api: fake.NewFakeAPI(), buildErr: errors.New("no consensus")}

	cmd := NewCommand(newOptions(t, cluster))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--dataset", writeDataset(t)})
	assert.EqualError(t, cmd.ExecuteContext(context.Background()), "no consensus")
	assert.True(t, cluster.tornDown)
	assert.Empty(t, cluster.api.Requests())
}

func TestRunMissingDataset(t *testing.T) {
	cluster := &fakeCluster{api: fake.NewFakeAPI()}

	cmd := NewCommand(newOptions(t, cluster))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--dataset", "does/not/exist.csv"})
	err := cmd.ExecuteContext(context.Background())
	assert.Error(t, err)
	assert.True(t, cluster.tornDown)
}

func TestRunInvalidFlags(t *testing.T) {
	cases := []struct {
		desc string
		args []string
	}{
		{desc: "trials", args: []string{"--trials", "-1"}},
		{desc: "nodes", args: []string{"--nodes", "-3"}},
		{desc: "timeout", args: []string{"--timeout", "-5s"}},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			cluster := &fakeCluster{api: fake.NewFakeAPI()}
			cmd := NewCommand(newOptions(t, cluster))
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(append([]string{"--dataset", writeDataset(t)}, c.args...))
			err := cmd.ExecuteContext(context.Background())
			assert.EqualError(t, err, fmt.Sprintf("invalid --%s %s, must not be negative", c.desc, c.args[1]))
			assert.False(t, cluster.built)
		})
	}
}

func TestRunFlags(t *testing.T) {
	o := newOptions(t, &fakeCluster{api: fake.NewFakeAPI()})
	cmd := NewCommand(o)
	require.NoError(t, cmd.ParseFlags([]string{"--seed", "0", "--timeout", "5s", "--unstable-links", "--trials", "4"}))
	o.complete(cmd)

	seed, ok := o.Config.Seed()
	assert.True(t, ok, "an explicit zero seed is still a seed")
	assert.Equal(t, int64(0), seed)
	assert.Equal(t, "5s", o.Config.Timeout().String())
	assert.True(t, o.Config.UnstableLinks())
	assert.False(t, o.Config.RichParameters())
	assert.Equal(t, 4, o.Config.Effective().Fuzz.Trials)
}
