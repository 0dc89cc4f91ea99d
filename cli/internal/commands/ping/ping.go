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

package ping

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/thestormforge/glmfuzz/cli/internal/commander"
	"github.com/thestormforge/glmfuzz/internal/config"
	"github.com/thestormforge/glmfuzz/internal/h2o"
	"github.com/thestormforge/glmfuzz/internal/version"
	"golang.org/x/oauth2"
)

// Options is the configuration for pinging the cloud
type Options struct {
	// Config is the fuzzer configuration
	Config *config.GLMFuzzConfig
	// API is used to interact with the cloud
	API h2o.API
	// IOStreams are used to access the standard process streams
	commander.IOStreams
}

// NewCommand creates a new command for pinging the cloud
func NewCommand(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Ping the cloud",
		Long:  "Report the cloud status and round trip time",

		PreRunE: func(cmd *cobra.Command, args []string) error {
			commander.SetStreams(&o.IOStreams, cmd)
			if o.API != nil {
				return nil
			}
			return commander.SetAPI(&o.API, o.Config, cmd)
		},
		RunE: commander.WithContextE(o.ping),
	}

	return cmd
}

func (o *Options) ping(ctx context.Context) error {
	host, addrs, err := hostAndAddrs(ctx, o.Config.Effective().Server.Address)
	if err != nil {
		return err
	}

	updateUserAgent(ctx)

	_, _ = fmt.Fprintf(o.Out, "PING %s (%s): HTTP/1.1 GET /Cloud.json\n", host, strings.Join(addrs, ", "))

	start := time.Now()
	cs, err := o.API.Cloud(ctx)
	dur := time.Since(start).Round(time.Microsecond)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(o.Out, "PONG cloud=%s size=%d consensus=%t locked=%t time=%s\n", cs.CloudName, cs.CloudSize, cs.Consensus, cs.Locked, dur.String())
	for _, n := range cs.Nodes {
		_, _ = fmt.Fprintf(o.Out, "  %s keys=%d cpus=%d free=%d\n", n.Name, n.NumKeys, n.NumCPUs, n.FreeMemory)
	}
	return nil
}

// Returns the host name and resolved addresses of the node
func hostAndAddrs(ctx context.Context, address string) (string, []string, error) {
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}
	u, err := url.Parse(address)
	if err != nil {
		return "", nil, err
	}

	host := u.Hostname()
	addrs, err := net.DefaultResolver.LookupHost(ctx, host)
	if err != nil {
		return "", nil, err
	}
	return host, addrs, nil
}

// Adds a comment to the UA string so we know the source of these requests
func updateUserAgent(ctx context.Context) {
	if rt, ok := oauth2.NewClient(ctx, nil).Transport.(*version.Transport); ok {
		rt.UserAgent += " (ping)"
	}
}
