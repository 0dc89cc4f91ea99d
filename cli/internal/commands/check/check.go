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

package check

import (
	"errors"
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/hokaccha/go-prettyjson"
	"github.com/spf13/cobra"
	"github.com/thestormforge/glmfuzz/cli/internal/commander"
	"github.com/thestormforge/glmfuzz/internal/check"
	"github.com/thestormforge/glmfuzz/internal/h2o"
	"github.com/thestormforge/glmfuzz/internal/params"
	"github.com/thestormforge/glmfuzz/internal/trial"
)

// Options is the configuration for checking a saved GLM response
type Options struct {
	// IOStreams are used to access the standard process streams
	commander.IOStreams

	// Filename is the saved response, "-" for standard input
	Filename string
	// Params are "name=value" assignments merged over the baseline request
	Params []string
	// Column is the feature column whose coefficient must be present
	Column string
	// Color enables colored JSON
	Color bool
}

// Result is the outcome of a check
type Result struct {
	Request  trial.Assignments `json:"request"`
	Warnings []string          `json:"warnings,omitempty"`
	Problems []string          `json:"problems,omitempty"`
}

// NewCommand creates a new command for checking a saved GLM response
func NewCommand(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a saved GLM response",
		Long:  "Check a saved GLM response against the request that produced it",

		PreRun: commander.StreamsPreRun(&o.IOStreams),
		RunE:   commander.WithoutArgsE(o.check),
	}

	cmd.Flags().StringVarP(&o.Filename, "response", "f", "-", "`file` containing the GLM response")
	cmd.Flags().StringArrayVarP(&o.Params, "param", "p", nil, "request parameter as `name=value`, may be repeated")
	cmd.Flags().StringVar(&o.Column, "column", "", "feature `column` whose coefficient must be present")
	cmd.Flags().BoolVar(&o.Color, "color", false, "colorize the output")

	_ = cmd.MarkFlagFilename("response", "json")

	return cmd
}

func (o *Options) check() error {
	request, err := o.request()
	if err != nil {
		return err
	}

	rc, err := o.OpenFile(o.Filename)
	if err != nil {
		return err
	}
	defer rc.Close()

	body, err := ioutil.ReadAll(rc)
	if err != nil {
		return err
	}

	var expected *check.Expected
	if o.Column != "" {
		expected = &check.Expected{Column: o.Column}
	}

	result := Result{Request: request}
	warnings, checkErr := check.SimpleCheckGLM(&h2o.GLMResult{Raw: body}, expected, request)
	result.Warnings = warnings

	var problems *check.Error
	if errors.As(checkErr, &problems) {
		result.Problems = problems.Problems
	} else if checkErr != nil {
		return checkErr
	}

	f := prettyjson.NewFormatter()
	f.DisabledColor = !o.Color
	output, err := f.Marshal(result)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(o.Out, string(output)); err != nil {
		return err
	}

	return checkErr
}

// request returns the baseline request with the parameters merged over it
func (o *Options) request() (trial.Assignments, error) {
	request := trial.Baseline()
	for _, p := range o.Params {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", p)
		}
		request.Merge(kv[0], params.Parse(kv[1]))
	}
	return request, nil
}
