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

package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/thestormforge/glmfuzz/internal/dataset"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	// DefaultAddress is the address of a node started with the default port
	DefaultAddress = "127.0.0.1:54321"
	// DefaultDatasetPath is the forest cover dataset the Poisson model is trained on
	DefaultDatasetPath = "UCI/UCI-large/covtype/covtype.data"
	// DefaultTrials is the number of GLM requests per run
	DefaultTrials = 20
	// DefaultTrialTimeout bounds a single GLM request
	DefaultTrialTimeout = 120 * time.Second
	// DefaultFormationTimeout bounds cloud formation
	DefaultFormationTimeout = 60 * time.Second

	xdgCacheHomeEnv     = "XDG_CACHE_HOME"
	xdgCacheHomeDefault = ".cache"
)

// The default loader must NEVER make changes via GLMFuzzConfig.Update or GLMFuzzConfig.unpersisted

func defaultLoader(cfg *GLMFuzzConfig) error {
	d := &cfg.data

	defaultString(&d.Server.Address, DefaultAddress)

	defaultString(&d.Cluster.Mode, ModeRemote)
	defaultInt(&d.Cluster.Nodes, 1)
	defaultString(&d.Cluster.Java, "java")
	defaultString(&d.Cluster.Host, "127.0.0.1")
	defaultInt(&d.Cluster.BasePort, 54321)
	defaultString(&d.Cluster.Heap, "1g")
	if d.Cluster.FormationTimeout == nil {
		d.Cluster.FormationTimeout = &metav1.Duration{Duration: DefaultFormationTimeout}
	}

	defaultString(&d.Dataset.Path, DefaultDatasetPath)
	if len(d.Dataset.Roots) == 0 {
		d.Dataset.Roots = append(d.Dataset.Roots, dataset.DefaultRoots...)
	}
	defaultString(&d.Dataset.CacheDir, cacheDir())

	defaultInt(&d.Fuzz.Trials, DefaultTrials)
	if d.Fuzz.Timeout == nil {
		d.Fuzz.Timeout = &metav1.Duration{Duration: DefaultTrialTimeout}
	}

	return nil
}

// defaultString overwrites an empty s1 with the value of s2
func defaultString(s1 *string, s2 string) {
	if *s1 == "" {
		*s1 = s2
	}
}

func defaultInt(i1 *int, i2 int) {
	if *i1 == 0 {
		*i1 = i2
	}
}

func cacheDir() string {
	xdgCacheHome := os.Getenv(xdgCacheHomeEnv)
	if xdgCacheHome == "" {
		xdgCacheHome = filepath.Join(os.Getenv(homeEnv), xdgCacheHomeDefault)
	}
	return filepath.Join(xdgCacheHome, "glmfuzz", "datasets")
}
