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
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/thestormforge/glmfuzz/cli/internal/commander"
	"github.com/thestormforge/glmfuzz/internal/cloud"
	"github.com/thestormforge/glmfuzz/internal/config"
	"github.com/thestormforge/glmfuzz/internal/dataset"
	"github.com/thestormforge/glmfuzz/internal/driver"
	"github.com/thestormforge/glmfuzz/internal/h2o"
	"github.com/thestormforge/glmfuzz/internal/params"
	"github.com/thestormforge/glmfuzz/internal/trial"
	"github.com/thestormforge/glmfuzz/internal/version"
	"golang.org/x/oauth2"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// tearDownTimeout bounds cloud tear down, which runs even when the run context is done
const tearDownTimeout = 30 * time.Second

// Options is the configuration for a fuzzing run
type Options struct {
	// Config is the fuzzer configuration
	Config *config.GLMFuzzConfig
	// LogOptions configure the structured logger
	LogOptions *commander.LogOptions
	// IOStreams are used to access the standard process streams
	commander.IOStreams

	// Cluster overrides the cluster built from the configuration
	Cluster cloud.Cluster
	// Color enables colored trial reports
	Color bool

	seed           int64
	timeout        time.Duration
	richParameters bool
	unstableLinks  bool
}

// NewCommand creates a new command for running the fuzzer
func NewCommand(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fuzz the Poisson GLM with random parameters",
		Long:  "Build a cloud, parse the dataset and run GLM trials with randomly drawn parameters until one fails",

		PreRun: func(cmd *cobra.Command, args []string) {
			commander.SetStreams(&o.IOStreams, cmd)
			o.complete(cmd)
		},
		RunE: commander.WithContextE(o.run),
	}
	commander.AddPreRunE(cmd, o.validate)

	f := &o.Config.Overrides
	cmd.Flags().IntVar(&f.Fuzz.Trials, "trials", 0, "`number` of GLM trials to run (default 20)")
	cmd.Flags().Int64Var(&o.seed, "seed", 0, "random `seed` used to reproduce a run")
	cmd.Flags().DurationVar(&o.timeout, "timeout", 0, "maximum `duration` of each GLM request (default 2m0s)")
	cmd.Flags().BoolVar(&o.richParameters, "rich-parameters", false, "draw from the larger parameter space")
	cmd.Flags().BoolVar(&o.unstableLinks, "unstable-links", false, "include link functions that may not converge")
	cmd.Flags().StringVar(&f.Dataset.Path, "dataset", "", "dataset `path` or remote source")
	cmd.Flags().IntVar(&f.Cluster.Nodes, "nodes", 0, "`number` of nodes the cloud must have")
	cmd.Flags().StringVar(&f.Cluster.Mode, "mode", "", "how the cloud is provided")
	cmd.Flags().StringVar(&f.Fuzz.MetricsFile, "metrics-file", "", "write run metrics to `file`")
	cmd.Flags().BoolVar(&o.Color, "color", false, "colorize the trial report")

	_ = cmd.MarkFlagFilename("metrics-file", "prom")
	commander.SetFlagValues(cmd, "mode", config.ModeRemote, config.ModeLocal)

	return cmd
}

// validate rejects flag values that have no meaning, zero values fall back to the configuration
func (o *Options) validate(cmd *cobra.Command, _ []string) error {
	f := &o.Config.Overrides
	switch {
	case f.Fuzz.Trials < 0:
		return fmt.Errorf("invalid --trials %d, must not be negative", f.Fuzz.Trials)
	case f.Cluster.Nodes < 0:
		return fmt.Errorf("invalid --nodes %d, must not be negative", f.Cluster.Nodes)
	case o.timeout < 0:
		return fmt.Errorf("invalid --timeout %s, must not be negative", o.timeout)
	}
	return nil
}

// complete copies flags that cannot be bound directly to the configuration overrides
func (o *Options) complete(cmd *cobra.Command) {
	f := &o.Config.Overrides
	if cmd.Flags().Changed("seed") {
		f.Fuzz.Seed = &o.seed
	}
	if cmd.Flags().Changed("timeout") {
		f.Fuzz.Timeout = &metav1.Duration{Duration: o.timeout}
	}
	if cmd.Flags().Changed("rich-parameters") {
		f.Fuzz.RichParameters = &o.richParameters
	}
	if cmd.Flags().Changed("unstable-links") {
		f.Fuzz.UnstableLinks = &o.unstableLinks
	}
}

func (o *Options) run(ctx context.Context) (err error) {
	cfg := o.Config.Effective()
	log := commander.NewLogger(o.logOptions(), o.ErrOut)

	runID := uuid.NewString()
	setRunID(ctx, runID)
	log = log.WithValues("run", runID)

	cluster, err := o.cluster(ctx, cfg, log)
	if err != nil {
		return err
	}

	cl, err := cluster.BuildCloud(ctx, cfg.Cluster.Nodes)
	defer func() {
		// Always tear down, even if the cloud never formed
		tdCtx, cancel := context.WithTimeout(context.Background(), tearDownTimeout)
		defer cancel()
		if tdErr := cluster.TearDown(tdCtx); tdErr != nil {
			log.Error(tdErr, "Cloud tear down failed")
			if err == nil {
				err = tdErr
			}
		}
	}()
	if err != nil {
		return err
	}

	path, key, err := o.loadDataset(ctx, cl.API, cfg.Dataset, log)
	if err != nil {
		return err
	}

	seed, ok := o.Config.Seed()
	if !ok {
		seed = trial.NewSeed()
	}

	var metrics *driver.Metrics
	if cfg.Fuzz.MetricsFile != "" {
		metrics = driver.NewMetrics()
		defer func() {
			if mErr := metrics.WriteToTextfile(cfg.Fuzz.MetricsFile); mErr != nil {
				log.Error(mErr, "Unable to write metrics", "file", cfg.Fuzz.MetricsFile)
			}
		}()
	}

	d := &driver.Driver{
		API:     cl.API,
		Log:     log.WithName("driver"),
		Out:     o.Out,
		Metrics: metrics,
	}
	if o.Color {
		d.Profile = termenv.ColorProfile()
	}

	_, err = d.Run(ctx, driver.Options{
		DatasetKey:  key,
		DatasetPath: path,
		Space:       params.DefineParams(params.Options{RichParameters: o.Config.RichParameters(), UnstableLinks: o.Config.UnstableLinks()}),
		Trials:      cfg.Fuzz.Trials,
		Seed:        seed,
		Timeout:     o.Config.Timeout(),
	})
	return err
}

// cluster returns the cluster described by the configuration
func (o *Options) cluster(ctx context.Context, cfg config.Config, log logr.Logger) (cloud.Cluster, error) {
	if o.Cluster != nil {
		return o.Cluster, nil
	}

	switch cfg.Cluster.Mode {
	case config.ModeRemote:
		api, err := commander.NewAPI(ctx, cfg.Server.Address, cfg.Server)
		if err != nil {
			return nil, err
		}
		return &cloud.Remote{
			Address:            cfg.Server.Address,
			API:                api,
			ShutdownOnTearDown: o.Config.ShutdownOnTearDown(),
			FormationTimeout:   o.Config.FormationTimeout(),
			Log:                log.WithName("cloud"),
		}, nil

	case config.ModeLocal:
		return &cloud.Local{
			Java:             cfg.Cluster.Java,
			JavaArgs:         cfg.Cluster.JavaArgs,
			Jar:              cfg.Cluster.Jar,
			Host:             cfg.Cluster.Host,
			BasePort:         cfg.Cluster.BasePort,
			Heap:             cfg.Cluster.Heap,
			LogDir:           cfg.Cluster.LogDir,
			FormationTimeout: o.Config.FormationTimeout(),
			Log:              log.WithName("cloud"),
			NewAPI: func(address string) (h2o.API, error) {
				return commander.NewAPI(ctx, address, cfg.Server)
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown cluster mode %q", cfg.Cluster.Mode)
	}
}

// loadDataset resolves, imports and parses the dataset, returning the local path and the parsed key
func (o *Options) loadDataset(ctx context.Context, api h2o.API, ds config.Dataset, log logr.Logger) (string, string, error) {
	r := &dataset.Resolver{Roots: ds.Roots, CacheDir: ds.CacheDir}
	path, err := r.Find(ds.Path)
	if err != nil {
		return "", "", err
	}

	src, err := api.ImportFile(ctx, path)
	if err != nil {
		return "", "", err
	}

	pr, err := api.Parse(ctx, src)
	if err != nil {
		return "", "", err
	}

	log.Info("Parsed dataset", "path", path, "key", pr.DestinationKey, "elapsed", pr.Elapsed.String())
	_, _ = fmt.Fprintf(o.Out, "parse end on %s took %.3f seconds\n", path, pr.Elapsed.Seconds())
	return path, pr.DestinationKey, nil
}

func (o *Options) logOptions() *commander.LogOptions {
	if o.LogOptions != nil {
		return o.LogOptions
	}
	return &commander.LogOptions{}
}

// setRunID tags every request of the run so service side logs can be correlated
func setRunID(ctx context.Context, runID string) {
	if rt, ok := oauth2.NewClient(ctx, nil).Transport.(*version.Transport); ok {
		rt.RunID = runID
	}
}
