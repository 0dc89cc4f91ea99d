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
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	// ModeRemote attaches to a cloud that is already running
	ModeRemote = "remote"
	// ModeLocal launches the cloud on this machine
	ModeLocal = "local"
)

// Config is the top level configuration structure for the fuzzer
type Config struct {
	// Server describes how to reach the service
	Server Server `json:"server,omitempty"`
	// Cluster describes the cloud the trials run against
	Cluster Cluster `json:"cluster,omitempty"`
	// Dataset describes where the training data comes from
	Dataset Dataset `json:"dataset,omitempty"`
	// Fuzz controls the trials
	Fuzz Fuzz `json:"fuzz,omitempty"`
}

// Server contains information about how to communicate with the service
type Server struct {
	// Address is the host and port (or base URL) of the node requests are sent to
	Address string `json:"address,omitempty"`
	// Token is an optional bearer token sent with every request
	Token string `json:"token,omitempty"`
	// QPS limits the request rate, zero is unlimited
	QPS float64 `json:"qps,omitempty"`
	// Burst is the maximum number of requests allowed over the QPS limit
	Burst int `json:"burst,omitempty"`
}

// Cluster contains information about the cloud
type Cluster struct {
	// Mode is either "remote" or "local"
	Mode string `json:"mode,omitempty"`
	// Nodes is the number of nodes the cloud must have
	Nodes int `json:"nodes,omitempty"`
	// Java is the java executable used to launch local nodes
	Java string `json:"java,omitempty"`
	// JavaArgs are additional JVM arguments for local nodes
	JavaArgs []string `json:"javaArgs,omitempty"`
	// Jar is the service jar used to launch local nodes
	Jar string `json:"jar,omitempty"`
	// Host is the address local nodes bind to
	Host string `json:"host,omitempty"`
	// BasePort is the port of the first local node
	BasePort int `json:"basePort,omitempty"`
	// Heap is the maximum heap of each local node
	Heap string `json:"heap,omitempty"`
	// LogDir receives the output of local nodes
	LogDir string `json:"logDir,omitempty"`
	// FormationTimeout is how long to wait for the cloud to form
	FormationTimeout *metav1.Duration `json:"formationTimeout,omitempty"`
	// ShutdownOnTearDown stops a remote cloud at the end of the run
	ShutdownOnTearDown *bool `json:"shutdownOnTearDown,omitempty"`
}

// Dataset contains information about the training data
type Dataset struct {
	// Path is a path relative to a dataset tree, an absolute path or a remote source
	Path string `json:"path,omitempty"`
	// Roots are searched when the path is not found relative to the working directory
	Roots []string `json:"roots,omitempty"`
	// CacheDir receives remote sources
	CacheDir string `json:"cacheDir,omitempty"`
}

// Fuzz contains the trial settings
type Fuzz struct {
	// Trials is the number of GLM requests to make
	Trials int `json:"trials,omitempty"`
	// Timeout bounds each GLM request
	Timeout *metav1.Duration `json:"timeout,omitempty"`
	// Seed makes the run reproducible, a fresh seed is used when unset
	Seed *int64 `json:"seed,omitempty"`
	// RichParameters selects the larger parameter space
	RichParameters *bool `json:"richParameters,omitempty"`
	// UnstableLinks adds link functions that may not converge
	UnstableLinks *bool `json:"unstableLinks,omitempty"`
	// MetricsFile receives the run metrics in the Prometheus text format
	MetricsFile string `json:"metricsFile,omitempty"`
}

// mergeConfig overwrites values in dst with the non-empty values of src
func mergeConfig(dst *Config, src *Config) {
	mergeString(&dst.Server.Address, src.Server.Address)
	mergeString(&dst.Server.Token, src.Server.Token)
	mergeFloat(&dst.Server.QPS, src.Server.QPS)
	mergeInt(&dst.Server.Burst, src.Server.Burst)

	mergeString(&dst.Cluster.Mode, src.Cluster.Mode)
	mergeInt(&dst.Cluster.Nodes, src.Cluster.Nodes)
	mergeString(&dst.Cluster.Java, src.Cluster.Java)
	mergeStrings(&dst.Cluster.JavaArgs, src.Cluster.JavaArgs)
	mergeString(&dst.Cluster.Jar, src.Cluster.Jar)
	mergeString(&dst.Cluster.Host, src.Cluster.Host)
	mergeInt(&dst.Cluster.BasePort, src.Cluster.BasePort)
	mergeString(&dst.Cluster.Heap, src.Cluster.Heap)
	mergeString(&dst.Cluster.LogDir, src.Cluster.LogDir)
	mergeDuration(&dst.Cluster.FormationTimeout, src.Cluster.FormationTimeout)
	mergeBool(&dst.Cluster.ShutdownOnTearDown, src.Cluster.ShutdownOnTearDown)

	mergeString(&dst.Dataset.Path, src.Dataset.Path)
	mergeStrings(&dst.Dataset.Roots, src.Dataset.Roots)
	mergeString(&dst.Dataset.CacheDir, src.Dataset.CacheDir)

	mergeInt(&dst.Fuzz.Trials, src.Fuzz.Trials)
	mergeDuration(&dst.Fuzz.Timeout, src.Fuzz.Timeout)
	if src.Fuzz.Seed != nil {
		seed := *src.Fuzz.Seed
		dst.Fuzz.Seed = &seed
	}
	mergeBool(&dst.Fuzz.RichParameters, src.Fuzz.RichParameters)
	mergeBool(&dst.Fuzz.UnstableLinks, src.Fuzz.UnstableLinks)
	mergeString(&dst.Fuzz.MetricsFile, src.Fuzz.MetricsFile)
}

func mergeString(s1 *string, s2 string) {
	if s2 != "" {
		*s1 = s2
	}
}

func mergeStrings(s1 *[]string, s2 []string) {
	if len(s2) > 0 {
		*s1 = append([]string(nil), s2...)
	}
}

func mergeInt(i1 *int, i2 int) {
	if i2 != 0 {
		*i1 = i2
	}
}

func mergeFloat(f1 *float64, f2 float64) {
	if f2 != 0 {
		*f1 = f2
	}
}

func mergeBool(b1 **bool, b2 *bool) {
	if b2 != nil {
		b := *b2
		*b1 = &b
	}
}

func mergeDuration(d1 **metav1.Duration, d2 *metav1.Duration) {
	if d2 != nil {
		d := *d2
		*d1 = &d
	}
}
