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

package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/thestormforge/glmfuzz/internal/h2o"
)

// DefaultGracePeriod is how long nodes are given to exit after a shutdown request
const DefaultGracePeriod = 10 * time.Second

// Local launches the cloud as JVM processes on this machine
type Local struct {
	// Java is the java executable, defaults to "java"
	Java string
	// JavaArgs are passed to the JVM ahead of the heap size
	JavaArgs []string
	// Jar is the path to the service jar
	Jar string
	// Host is the address the nodes bind to, defaults to "127.0.0.1"
	Host string
	// BasePort is the port of the first node, each node takes two consecutive ports
	BasePort int
	// Heap is the maximum heap size of each node (e.g. "4g")
	Heap string
	// LogDir receives one output file per node, output is discarded when empty
	LogDir string
	// Env is appended to the environment of every node
	Env []string
	// NewAPI connects to a node address
	NewAPI func(address string) (h2o.API, error)
	// FormationTimeout overrides DefaultFormationTimeout
	FormationTimeout time.Duration
	// PollInterval overrides DefaultPollInterval
	PollInterval time.Duration
	// GracePeriod overrides DefaultGracePeriod
	GracePeriod time.Duration
	// Log receives progress messages
	Log logr.Logger

	name  string
	api   h2o.API
	nodes []*node
}

var _ Cluster = &Local{}

type node struct {
	cmd  *exec.Cmd
	out  io.Closer
	done chan struct{}
	err  error
}

// Name returns the name of the most recently launched cloud
func (l *Local) Name() string {
	return l.name
}

func (l *Local) BuildCloud(ctx context.Context, nodeCount int) (*Cloud, error) {
	if nodeCount < 1 {
		return nil, fmt.Errorf("invalid node count %d", nodeCount)
	}
	if l.Jar == "" {
		return nil, fmt.Errorf("a jar is required to launch a local cloud")
	}
	if l.NewAPI == nil {
		return nil, fmt.Errorf("no API factory configured")
	}

	l.name = "glmfuzz-" + uuid.NewString()
	for i := 0; i < nodeCount; i++ {
		n, err := l.start(i)
		if err != nil {
			_ = l.TearDown(ctx)
			return nil, err
		}
		l.nodes = append(l.nodes, n)
	}

	address := net.JoinHostPort(l.host(), strconv.Itoa(l.BasePort))
	api, err := l.NewAPI(address)
	if err != nil {
		_ = l.TearDown(ctx)
		return nil, err
	}
	l.api = api

	cs, err := waitForCloud(ctx, orDiscard(l.Log), api, nodeCount, l.PollInterval, l.FormationTimeout)
	if err != nil {
		_ = l.TearDown(ctx)
		return nil, err
	}

	return &Cloud{Address: address, API: api, Status: cs}, nil
}

func (l *Local) TearDown(ctx context.Context) error {
	if len(l.nodes) == 0 {
		return nil
	}

	var errs []error
	if l.api != nil {
		if err := l.api.Shutdown(ctx); err != nil {
			orDiscard(l.Log).Info("Cloud shutdown request failed, killing nodes", "error", err.Error())
		}
	}

	grace := l.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	deadline := time.After(grace)
	expired := false
	for i, n := range l.nodes {
		if !expired {
			select {
			case <-n.done:
				continue
			case <-deadline:
				expired = true
			}
		}

		orDiscard(l.Log).Info("Killing node", "node", i, "pid", n.cmd.Process.Pid)
		if err := n.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			errs = append(errs, err)
		}
		<-n.done
	}

	l.nodes = nil
	l.api = nil
	if len(errs) > 0 {
		return fmt.Errorf("failed to stop %d node(s): %w", len(errs), errs[0])
	}
	return nil
}

func (l *Local) start(i int) (*node, error) {
	port := l.BasePort + 2*i
	args := append([]string{}, l.JavaArgs...)
	if l.Heap != "" {
		args = append(args, "-Xmx"+l.Heap)
	}
	args = append(args,
		"-jar", l.Jar,
		"-name", l.name,
		"-ip", l.host(),
		"-port", strconv.Itoa(port),
	)

	java := l.Java
	if java == "" {
		java = "java"
	}

	cmd := exec.Command(java, args...)
	cmd.Env = append(os.Environ(), l.Env...)

	n := &node{cmd: cmd, done: make(chan struct{})}
	if l.LogDir != "" {
		f, err := os.Create(filepath.Join(l.LogDir, fmt.Sprintf("%s-%d.log", l.name, i)))
		if err != nil {
			return nil, err
		}
		cmd.Stdout, cmd.Stderr, n.out = f, f, f
	}

	if err := cmd.Start(); err != nil {
		if n.out != nil {
			_ = n.out.Close()
		}
		return nil, fmt.Errorf("unable to start node %d: %w", i, err)
	}
	orDiscard(l.Log).V(1).Info("Started node", "node", i, "pid", cmd.Process.Pid, "port", port)

	go func() {
		n.err = cmd.Wait()
		if n.out != nil {
			_ = n.out.Close()
		}
		close(n.done)
	}()

	return n, nil
}

func (l *Local) host() string {
	if l.Host != "" {
		return l.Host
	}
	return "127.0.0.1"
}
