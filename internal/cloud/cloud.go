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

// Package cloud manages the lifecycle of the compute cluster the fuzzer runs against.
package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/thestormforge/glmfuzz/internal/h2o"
	"k8s.io/apimachinery/pkg/util/wait"
)

const (
	// DefaultFormationTimeout is how long to wait for the nodes to agree on a cloud
	DefaultFormationTimeout = 60 * time.Second
	// DefaultPollInterval is how often the cloud status is checked while forming
	DefaultPollInterval = time.Second
)

// Cloud is a formed cluster ready to take requests
type Cloud struct {
	// Address is the address of the node requests are sent to
	Address string
	// API is connected to Address
	API h2o.API
	// Status is the cloud status observed when the cloud formed
	Status h2o.CloudStatus
}

// Cluster creates and destroys clouds
type Cluster interface {
	// BuildCloud returns once a cloud of at least nodeCount members has formed
	BuildCloud(ctx context.Context, nodeCount int) (*Cloud, error)
	// TearDown releases everything acquired by BuildCloud, it is safe to call after a failed build
	TearDown(ctx context.Context) error
}

// FormationError indicates the cloud never reached the requested size
type FormationError struct {
	NodeCount int
	Last      h2o.CloudStatus
	Cause     error
}

func (e *FormationError) Error() string {
	msg := fmt.Sprintf("cloud did not form with %d nodes (last size %d, consensus %t)", e.NodeCount, e.Last.CloudSize, e.Last.Consensus)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *FormationError) Unwrap() error {
	return e.Cause
}

// Remote attaches to a cloud that is managed elsewhere
type Remote struct {
	// Address of the node to send requests to
	Address string
	// API is connected to Address
	API h2o.API
	// ShutdownOnTearDown stops the remote cloud when the run is over
	ShutdownOnTearDown bool
	// FormationTimeout overrides DefaultFormationTimeout
	FormationTimeout time.Duration
	// PollInterval overrides DefaultPollInterval
	PollInterval time.Duration
	// Log receives progress messages
	Log logr.Logger

	attached bool
}

var _ Cluster = &Remote{}

func (r *Remote) BuildCloud(ctx context.Context, nodeCount int) (*Cloud, error) {
	cs, err := waitForCloud(ctx, orDiscard(r.Log), r.API, nodeCount, r.PollInterval, r.FormationTimeout)
	if err != nil {
		return nil, err
	}
	r.attached = true
	return &Cloud{Address: r.Address, API: r.API, Status: cs}, nil
}

func (r *Remote) TearDown(ctx context.Context) error {
	if !r.attached || !r.ShutdownOnTearDown {
		return nil
	}
	r.attached = false
	return r.API.Shutdown(ctx)
}

// waitForCloud polls the cloud status until it agrees on at least nodeCount members
func waitForCloud(ctx context.Context, log logr.Logger, api h2o.API, nodeCount int, interval, timeout time.Duration) (h2o.CloudStatus, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultFormationTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var last h2o.CloudStatus
	var lastErr error
	err := wait.PollImmediateUntil(interval, func() (bool, error) {
		cs, err := api.Cloud(ctx)
		if err != nil {
			// Nodes refuse connections while they are still starting
			lastErr = err
			return false, nil
		}
		last, lastErr = cs, nil
		log.V(1).Info("Waiting for cloud", "name", cs.CloudName, "size", cs.CloudSize, "consensus", cs.Consensus)
		return cs.Formed(nodeCount), nil
	}, ctx.Done())
	if err != nil {
		return last, &FormationError{NodeCount: nodeCount, Last: last, Cause: lastErr}
	}

	log.Info("Cloud formed", "name", last.CloudName, "size", last.CloudSize)
	return last, nil
}

// orDiscard returns a usable logger even when one was never configured
func orDiscard(log logr.Logger) logr.Logger {
	if log.GetSink() == nil {
		return logr.Discard()
	}
	return log
}
