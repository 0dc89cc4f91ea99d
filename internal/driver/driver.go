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

// Package driver runs the fuzzing trials against a parsed dataset.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"time"

	"github.com/go-logr/logr"
	"github.com/muesli/termenv"
	"github.com/thestormforge/glmfuzz/internal/check"
	"github.com/thestormforge/glmfuzz/internal/h2o"
	"github.com/thestormforge/glmfuzz/internal/params"
	"github.com/thestormforge/glmfuzz/internal/trial"
)

const (
	// DefaultTrials is the number of trials when none is requested
	DefaultTrials = 20
	// DefaultTimeout bounds a single GLM request when no timeout is requested
	DefaultTimeout = 120 * time.Second
)

// Options describe a single fuzzing run
type Options struct {
	// DatasetKey is the key of the parsed dataset every model is trained on
	DatasetKey string
	// DatasetPath is where the dataset was loaded from, it is only reported
	DatasetPath string
	// Space is the parameter space trials are drawn from
	Space params.Space
	// Trials is the number of GLM requests to make
	Trials int
	// Seed determines every draw of the run
	Seed int64
	// Timeout bounds each GLM request
	Timeout time.Duration
	// Expected overrides what the checker looks for, by default the realized feature column of each trial
	Expected *check.Expected
}

// Summary describes a run that completed, or how far a failed run got
type Summary struct {
	Seed      int64         `json:"seed"`
	Completed int           `json:"completed"`
	Elapsed   time.Duration `json:"elapsed"`
}

// TrialError is returned when a trial fails, no further trials are run
type TrialError struct {
	// Trial is the zero based index of the failed trial
	Trial int
	// Request is the complete request of the failed trial
	Request trial.Assignments
	// Cause is the service, timeout or checker failure
	Cause error
}

func (e *TrialError) Error() string {
	return fmt.Sprintf("trial #%d failed with %s: %v", e.Trial, e.Request, e.Cause)
}

func (e *TrialError) Unwrap() error {
	return e.Cause
}

// Driver issues GLM requests and checks the responses
type Driver struct {
	// API is the service under test
	API h2o.API
	// Checker validates responses, defaults to check.SimpleCheckGLM
	Checker check.Checker
	// Log receives structured progress messages
	Log logr.Logger
	// Out receives the human readable trial report
	Out io.Writer
	// Profile is the color profile of the report, plain text by default
	Profile termenv.Profile
	// Metrics is optional
	Metrics *Metrics
}

// Run draws and executes the trials sequentially, stopping at the first failure
func (d *Driver) Run(ctx context.Context, opts Options) (Summary, error) {
	s := Summary{Seed: opts.Seed}
	if opts.DatasetKey == "" {
		return s, fmt.Errorf("missing dataset key")
	}

	trials := opts.Trials
	if trials <= 0 {
		trials = DefaultTrials
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	location := opts.DatasetPath
	if location == "" {
		location = opts.DatasetKey
	}

	log := d.log()
	r := &report{out: d.out(), profile: d.Profile}
	d.Metrics.start(opts.Seed)

	gen := trial.NewSeededGenerator(opts.Space, opts.Seed)
	r.step(Seed, "seed: %d", opts.Seed)
	log.Info("Starting run", "seed", opts.Seed, "trials", trials, "dataset", opts.DatasetKey)

	start := time.Now()
	for i := 0; i < trials; i++ {
		if err := ctx.Err(); err != nil {
			s.Elapsed = time.Since(start)
			return s, err
		}

		draw := gen.Next()
		log.V(1).Info("Drew trial", "trial", i, "size", draw.Size, "picks", len(draw.Picks))
		log.Info("Starting trial", "trial", i, "request", draw.Request.String())
		r.step(Parameters, "Trial #%d parameters: %s", i, draw.Request)

		expected := opts.Expected
		if expected == nil {
			expected = &check.Expected{Column: draw.ColX.String()}
		}

		elapsed, warnings, err := d.runTrial(ctx, opts.DatasetKey, draw.Request, expected, timeout)
		d.Metrics.observe(result(err), elapsed)
		if err != nil {
			log.Error(err, "Trial failed", "trial", i, "elapsed", elapsed.String())
			r.step(Failure, "Trial #%d failed after %.3f seconds: %v", i, elapsed.Seconds(), err)
			s.Elapsed = time.Since(start)
			return s, &TrialError{Trial: i, Request: draw.Request, Cause: err}
		}

		for _, w := range warnings {
			log.Info("Check warning", "trial", i, "warning", w)
			r.step(Warning, "warning: %s", w)
		}
		r.step(Took, "glm end on %s took %.3f seconds", location, elapsed.Seconds())
		r.step(Completed, "Trial #%d completed (X=%s)", i, draw.ColX)
		s.Completed++
	}

	s.Elapsed = time.Since(start)
	r.step(Completed, "%d trials completed in %.3f seconds", s.Completed, s.Elapsed.Seconds())
	log.Info("Run complete", "completed", s.Completed, "elapsed", s.Elapsed.String())
	return s, nil
}

func (d *Driver) runTrial(ctx context.Context, key string, request trial.Assignments, expected *check.Expected, timeout time.Duration) (time.Duration, []string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	res, err := d.API.GLM(ctx, key, request)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%v: %w", err, context.DeadlineExceeded)
		}
		return elapsed, nil, err
	}

	if res != nil {
		d.log().V(1).Info("Fitted model", "key", res.Key(), "elapsed", elapsed.String())
	}

	warnings, err := d.checker().Check(res, expected, request)
	return elapsed, warnings, err
}

func (d *Driver) checker() check.Checker {
	if d.Checker != nil {
		return d.Checker
	}
	return check.CheckerFunc(check.SimpleCheckGLM)
}

func (d *Driver) log() logr.Logger {
	if d.Log.GetSink() == nil {
		return logr.Discard()
	}
	return d.Log
}

func (d *Driver) out() io.Writer {
	if d.Out == nil {
		return ioutil.Discard
	}
	return d.Out
}

// result classifies the outcome of a trial for reporting
func result(err error) string {
	var checkErr *check.Error
	switch {
	case err == nil:
		return ResultCompleted
	case errors.As(err, &checkErr):
		return ResultCheckFailed
	case h2o.IsServiceFault(err):
		return ResultServiceFault
	case errors.Is(err, context.DeadlineExceeded):
		return ResultTimeout
	default:
		return ResultError
	}
}
