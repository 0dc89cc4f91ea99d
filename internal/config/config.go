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

package config

import (
	"encoding/json"
	"time"
)

// Loader is used to initially populate a fuzzer configuration
type Loader func(cfg *GLMFuzzConfig) error

// Change is used to apply a configuration change that should be persisted
type Change func(cfg *Config) error

// GLMFuzzConfig is the structure used to manage configuration data
type GLMFuzzConfig struct {
	// Filename is the path to the configuration file; if left blank, it will be populated using XDG base directory conventions on the next Load
	Filename string
	// Overrides take precedence over everything in the configuration file, they are never persisted
	Overrides Config

	data        Config
	unpersisted []Change
}

// MarshalJSON ensures only the effective configuration is marshalled
func (c *GLMFuzzConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Effective())
}

// Load will populate the configuration; extra loaders run after the file is read and before the environment
func (c *GLMFuzzConfig) Load(extra ...Loader) error {
	var loaders []Loader
	loaders = append(loaders, fileLoader)
	loaders = append(loaders, extra...)
	loaders = append(loaders, envLoader, defaultLoader)
	for i := range loaders {
		if err := loaders[i](c); err != nil {
			return err
		}
	}
	return nil
}

// Update will make a change to the configuration data that should be persisted on the next call to Write
func (c *GLMFuzzConfig) Update(change Change) error {
	if err := change(&c.data); err != nil {
		return err
	}
	c.unpersisted = append(c.unpersisted, change)
	return nil
}

// Write all unpersisted changes to disk
func (c *GLMFuzzConfig) Write() error {
	if c.Filename == "" || len(c.unpersisted) == 0 {
		return nil
	}

	f := file{}
	if err := f.read(c.Filename); err != nil {
		return err
	}

	for i := range c.unpersisted {
		if err := c.unpersisted[i](&f.data); err != nil {
			return err
		}
	}

	if err := f.write(c.Filename); err != nil {
		return err
	}

	c.unpersisted = nil
	return nil
}

// Merge combines the supplied data with what is already present in this configuration
func (c *GLMFuzzConfig) Merge(data *Config) {
	mergeConfig(&c.data, data)
}

// Effective returns the configuration with the overrides applied
func (c *GLMFuzzConfig) Effective() Config {
	cfg := c.data
	mergeConfig(&cfg, &c.Overrides)
	return cfg
}

// Timeout returns the per-trial timeout
func (c *GLMFuzzConfig) Timeout() time.Duration {
	if d := c.Effective().Fuzz.Timeout; d != nil {
		return d.Duration
	}
	return DefaultTrialTimeout
}

// FormationTimeout returns the time allowed for the cloud to form
func (c *GLMFuzzConfig) FormationTimeout() time.Duration {
	if d := c.Effective().Cluster.FormationTimeout; d != nil {
		return d.Duration
	}
	return DefaultFormationTimeout
}

// Seed returns the configured seed, if any
func (c *GLMFuzzConfig) Seed() (int64, bool) {
	if s := c.Effective().Fuzz.Seed; s != nil {
		return *s, true
	}
	return 0, false
}

// RichParameters returns true if the larger parameter space should be used
func (c *GLMFuzzConfig) RichParameters() bool {
	return boolValue(c.Effective().Fuzz.RichParameters)
}

// UnstableLinks returns true if link functions that may not converge should be drawn
func (c *GLMFuzzConfig) UnstableLinks() bool {
	return boolValue(c.Effective().Fuzz.UnstableLinks)
}

// ShutdownOnTearDown returns true if a remote cloud should be stopped at the end of a run
func (c *GLMFuzzConfig) ShutdownOnTearDown() bool {
	return boolValue(c.Effective().Cluster.ShutdownOnTearDown)
}

func boolValue(b *bool) bool {
	return b != nil && *b
}
