/*
Copyright 2020 GramLabs, Inc.

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

package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/thestormforge/glmfuzz/internal/check"
	"github.com/thestormforge/glmfuzz/internal/cloud"
	"github.com/thestormforge/glmfuzz/internal/dataset"
	"github.com/thestormforge/glmfuzz/internal/driver"
	"github.com/thestormforge/glmfuzz/internal/h2o"
	"github.com/thestormforge/glmfuzz/internal/trial"
)

func TestUsage(t *testing.T) {
	testCommandUsage(t, NewRootCommand())
}

func testCommandUsage(t *testing.T, cmd *cobra.Command) {
	// The overall goal here is to be consistent, and that includes considering the Cobra
	// generated commands and flags (like help).

	// For short descriptions (e.g. " help  Help about any command") we want sentence case
	// without the period. We also want to prevent wrapping on an 80 column layout so we
	// limit the length.

	// For flags (e.g. "-h, --help  help for xxx") we want lower case without the period.

	t.Run(cmd.Name(), func(t *testing.T) {
		// Short description
		fw := strings.Fields(cmd.Short)[0]
		assert.Equal(t, strings.Title(fw), fw)
		assert.False(t, strings.HasSuffix(cmd.Short, "."))
		assert.Greater(t, 60, len(cmd.Short))

		// Flags
		cmd.Flags().VisitAll(func(f *flag.Flag) {
			t.Run("--"+f.Name, func(t *testing.T) {
				assert.False(t, strings.HasSuffix(cmd.Short, "."))

				if _, u := flag.UnquoteUsage(f); assert.NotEmpty(t, u) {
					fw := strings.Fields(u)[0]
					assert.Equal(t, normalizeFlagUsage(fw), fw)
				}

				if f.Name == "filename" {
					assert.Containsf(t, f.Annotations, cobra.BashCompFilenameExt, "cmd.MarkFlagFilename('filename', 'ext'...) missing")
				}

				if strings.Contains(f.Usage, "one of") {
					assert.Regexp(t, ".*; one of: (.+)(|.+)*", f.Usage)
				}
			})
		})

		// Recurse into the children commands
		for _, c := range cmd.Commands() {
			testCommandUsage(t, c)
		}
	})
}

func normalizeFlagUsage(usageFirstWord string) string {
	if usageFirstWord == "GLM" {
		return usageFirstWord
	}
	return strings.ToLower(usageFirstWord)
}

func TestMapError(t *testing.T) {
	request := trial.Baseline()
	cases := []struct {
		desc     string
		err      error
		contains string
	}{
		{
			desc: "nil",
		},
		{
			desc:     "service fault",
			err:      &driver.TrialError{Trial: 3, Request: request, Cause: &h2o.Error{Type: h2o.ErrServiceFault, Message: "NaN"}},
			contains: "rerun with --seed",
		},
		{
			desc:     "timeout",
			err:      &driver.TrialError{Trial: 0, Request: request, Cause: context.DeadlineExceeded},
			contains: "increasing --timeout",
		},
		{
			desc:     "check failure",
			err:      &driver.TrialError{Trial: 1, Request: request, Cause: &check.Error{Problems: []string{"missing validations"}}},
			contains: "trial #1 failed",
		},
		{
			desc:     "cloud",
			err:      fmt.Errorf("build: %w", &cloud.FormationError{NodeCount: 3}),
			contains: "glmfuzz ping",
		},
		{
			desc:     "missing key",
			err:      fmt.Errorf("parse: %w", &h2o.Error{Type: h2o.ErrNotFound, Message: "unknown key nfs://covtype.data"}),
			contains: "cloud may have restarted",
		},
		{
			desc:     "dataset",
			err:      &dataset.NotFoundError{Path: "covtype.data"},
			contains: "--dataset",
		},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			err := mapError(c.err)
			if c.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, c.err))
			assert.Contains(t, err.Error(), c.contains)
		})
	}
}
