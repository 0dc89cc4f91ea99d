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

package commander

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"github.com/thestormforge/glmfuzz/internal/config"
	"github.com/thestormforge/glmfuzz/internal/h2o"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// IOStreams allows individual commands access to standard process streams (or their overrides).
type IOStreams struct {
	// In is used to access the standard input stream (or it's override)
	In io.Reader
	// Out is used to access the standard output stream (or it's override)
	Out io.Writer
	// ErrOut is used to access the standard error output stream (or it's override)
	ErrOut io.Writer
}

// OpenFile returns a read closer for the specified filename. If the filename is logically
// empty (i.e. "-"), the input stream is returned.
func (s *IOStreams) OpenFile(filename string) (io.ReadCloser, error) {
	if filename == "-" {
		return ioutil.NopCloser(s.In), nil
	}
	return os.Open(filename)
}

// SetStreams updates the streams using the supplied command
func SetStreams(streams *IOStreams, cmd *cobra.Command) {
	streams.Out = cmd.OutOrStdout()
	streams.ErrOut = cmd.ErrOrStderr()
	streams.In = cmd.InOrStdin()
}

// StreamsPreRun is intended to be used as a pre-run function for commands when no other action is required
func StreamsPreRun(streams *IOStreams) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		SetStreams(streams, cmd)
	}
}

// LogOptions control the structured logger
type LogOptions struct {
	// Verbosity enables increasingly detailed log messages
	Verbosity int
	// Development switches to human friendly console output
	Development bool
}

// ConfigGlobals sets up persistent globals for the supplied configuration
func ConfigGlobals(cfg *config.GLMFuzzConfig, lo *LogOptions, cmd *cobra.Command) {
	// Make sure we get the root to make these globals
	root := cmd.Root()

	// Create the configuration options on top of environment variable overrides
	root.PersistentFlags().StringVar(&cfg.Filename, "glmfuzzconfig", cfg.Filename, "path to the glmfuzz configuration `file` to use")
	root.PersistentFlags().StringVar(&cfg.Overrides.Server.Address, "address", "", "the `host:port` of the node to send requests to")
	root.PersistentFlags().IntVarP(&lo.Verbosity, "verbose", "v", 0, "log `level` for structured logging")
	root.PersistentFlags().BoolVar(&lo.Development, "dev-logs", false, "use console formatted logs")

	_ = root.MarkPersistentFlagFilename("glmfuzzconfig")

	// Set the persistent pre-run on the root, individual commands can bypass this by supplying their own persistent pre-run
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error { return cfg.Load() }
}

// NewLogger returns a structured logger writing to the supplied stream
func NewLogger(lo *LogOptions, w io.Writer) logr.Logger {
	var encoder zapcore.Encoder
	if lo.Development {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	level := zap.NewAtomicLevelAt(zapcore.Level(-lo.Verbosity))
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	return zapr.NewLogger(zap.New(core))
}

// NewAPI creates a new service API for the supplied address using the server configuration
func NewAPI(ctx context.Context, address string, srv config.Server) (h2o.API, error) {
	// Reuse the OAuth2 base transport (it carries the user agent) for the API calls
	t := oauth2.NewClient(ctx, nil).Transport
	if srv.Token != "" {
		t = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: srv.Token}),
			Base:   t,
		}
	}

	var limiter *rate.Limiter
	if srv.QPS > 0 {
		burst := srv.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(srv.QPS), burst)
	}

	c, err := h2o.NewClient(address, t, limiter)
	if err != nil {
		return nil, err
	}
	return h2o.NewAPI(c), nil
}

// SetAPI creates a new service API from the supplied configuration
func SetAPI(api *h2o.API, cfg *config.GLMFuzzConfig, cmd *cobra.Command) error {
	srv := cfg.Effective().Server
	a, err := NewAPI(cmd.Context(), srv.Address, srv)
	if err != nil {
		return err
	}
	*api = a
	return nil
}

// WithContextE wraps a function that accepts a context in one that accepts a command and argument slice
func WithContextE(runE func(context.Context) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error { return runE(cmd.Context()) }
}

// WithoutArgsE wraps a no-argument function in one that accepts a command and argument slice
func WithoutArgsE(runE func() error) func(*cobra.Command, []string) error {
	return func(*cobra.Command, []string) error { return runE() }
}

// AddPreRunE adds an error returning pre-run function to the supplied command, existing pre-run actions will run AFTER
// the supplied function, and only if the supplied pre-run function does not return an error
func AddPreRunE(cmd *cobra.Command, preRunE func(*cobra.Command, []string) error) {
	// Nothing set yet, just add it
	if cmd.PreRunE == nil && cmd.PreRun == nil {
		cmd.PreRunE = preRunE
		return
	}

	// Capture the existing function
	oldPreRunE := cmd.PreRunE
	oldPreRun := cmd.PreRun

	// Redefine the pre-run
	cmd.PreRun = nil
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if err := preRunE(cmd, args); err != nil {
			return err
		}
		if oldPreRunE != nil {
			return oldPreRunE(cmd, args)
		}
		if oldPreRun != nil {
			oldPreRun(cmd, args)
		}
		return nil
	}
}

// SetFlagValues updates the named flag usage and completion to include possible choices.
func SetFlagValues(cmd *cobra.Command, flagName string, values ...string) {
	f := cmd.Flag(flagName)
	if f == nil {
		return
	}

	// Remove blank values
	tmp := values[:0]
	for _, v := range values {
		if v != "" {
			tmp = append(tmp, v)
		}
	}
	values = tmp

	f.Usage = fmt.Sprintf("%s; one of: %s", f.Usage, strings.Join(values, "|"))
	_ = cmd.RegisterFlagCompletionFunc(flagName, func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		c := make([]string, 0, len(values))
		for _, v := range values {
			if strings.HasPrefix(v, toComplete) {
				c = append(c, v)
			}
		}
		return c, cobra.ShellCompDirectiveNoFileComp
	})
}

// MapErrors wraps all of the error returning functions on the supplied command (and it's sub-commands) so that
// they pass any errors through the mapping function.
func MapErrors(cmd *cobra.Command, f func(error) error) {
	// Define a function which passes all errors through the supplied mapping function
	wrapE := func(runE func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
		if runE != nil {
			return func(cmd *cobra.Command, args []string) error {
				return f(runE(cmd, args))
			}
		}
		return nil
	}

	// Wrap all the error returning functions
	cmd.PersistentPreRunE = wrapE(cmd.PersistentPreRunE)
	cmd.PreRunE = wrapE(cmd.PreRunE)
	cmd.RunE = wrapE(cmd.RunE)
	cmd.PostRunE = wrapE(cmd.PostRunE)
	cmd.PersistentPostRunE = wrapE(cmd.PersistentPostRunE)

	// Recurse and wrap errors for all of the sub-commands
	for _, c := range cmd.Commands() {
		MapErrors(c, f)
	}
}
