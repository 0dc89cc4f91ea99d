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
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// EnvPrefix is the common prefix of all environment variable overrides
const EnvPrefix = "GLMFUZZ_"

// environment holds the recognized variables, unset variables leave nil pointers and empty values
type environment struct {
	ServerAddress      string         `env:"SERVER_ADDRESS"`
	ServerToken        string         `env:"SERVER_TOKEN"`
	ServerQPS          *float64       `env:"SERVER_QPS"`
	ClusterMode        string         `env:"CLUSTER_MODE"`
	ClusterNodes       *int           `env:"CLUSTER_NODES"`
	ClusterJava        string         `env:"CLUSTER_JAVA"`
	ClusterJar         string         `env:"CLUSTER_JAR"`
	ClusterHeap        string         `env:"CLUSTER_HEAP"`
	ClusterBasePort    *int           `env:"CLUSTER_BASE_PORT"`
	ClusterShutdown    *bool          `env:"CLUSTER_SHUTDOWN"`
	DatasetPath        string         `env:"DATASET_PATH"`
	DatasetRoots       []string       `env:"DATASET_ROOTS" envSeparator:":"`
	DatasetCacheDir    string         `env:"DATASET_CACHE_DIR"`
	Trials             *int           `env:"TRIALS"`
	Timeout            *time.Duration `env:"TIMEOUT"`
	Seed               *int64         `env:"SEED"`
	RichParameters     *bool          `env:"RICH_PARAMETERS"`
	UnstableLinks      *bool          `env:"UNSTABLE_LINKS"`
	MetricsFile        string         `env:"METRICS_FILE"`
	ClusterFormTimeout *time.Duration `env:"CLUSTER_FORMATION_TIMEOUT"`
}

// envLoader adds environment variable overrides to the configuration, it never replaces an existing override
func envLoader(cfg *GLMFuzzConfig) error {
	e := environment{}
	if err := env.ParseWithOptions(&e, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}

	ec := Config{}
	ec.Server.Address = e.ServerAddress
	ec.Server.Token = e.ServerToken
	if e.ServerQPS != nil {
		ec.Server.QPS = *e.ServerQPS
	}
	ec.Cluster.Mode = e.ClusterMode
	if e.ClusterNodes != nil {
		ec.Cluster.Nodes = *e.ClusterNodes
	}
	ec.Cluster.Java = e.ClusterJava
	ec.Cluster.Jar = e.ClusterJar
	ec.Cluster.Heap = e.ClusterHeap
	if e.ClusterBasePort != nil {
		ec.Cluster.BasePort = *e.ClusterBasePort
	}
	ec.Cluster.ShutdownOnTearDown = e.ClusterShutdown
	if e.ClusterFormTimeout != nil {
		ec.Cluster.FormationTimeout = &metav1.Duration{Duration: *e.ClusterFormTimeout}
	}
	ec.Dataset.Path = e.DatasetPath
	ec.Dataset.Roots = e.DatasetRoots
	ec.Dataset.CacheDir = e.DatasetCacheDir
	if e.Trials != nil {
		ec.Fuzz.Trials = *e.Trials
	}
	if e.Timeout != nil {
		ec.Fuzz.Timeout = &metav1.Duration{Duration: *e.Timeout}
	}
	ec.Fuzz.Seed = e.Seed
	ec.Fuzz.RichParameters = e.RichParameters
	ec.Fuzz.UnstableLinks = e.UnstableLinks
	ec.Fuzz.MetricsFile = e.MetricsFile

	// Existing overrides (e.g. from flags) win over the environment
	mergeConfig(&ec, &cfg.Overrides)
	cfg.Overrides = ec
	return nil
}
