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

package h2o

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"
)

// Client is the low level access to the service's JSON endpoints
type Client interface {
	URL(endpoint string) *url.URL
	Do(context.Context, *http.Request) (*http.Response, []byte, error)
}

// NewClient returns a new client for the service listening at the supplied address; the supplied transport
// (which may be nil in the case of the default transport) is used for all requests. A nil limiter does not
// limit requests.
func NewClient(address string, transport http.RoundTripper, limiter *rate.Limiter) (Client, error) {
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}

	u, err := url.Parse(address)
	if err != nil {
		return nil, err
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid service address: %q", address)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/"

	hc := &httpClient{base: u, limiter: limiter}
	hc.client.Transport = transport
	return hc, nil
}

type httpClient struct {
	base    *url.URL
	client  http.Client
	limiter *rate.Limiter
}

func (c *httpClient) URL(ep string) *url.URL {
	u := *c.base
	u.Path += strings.TrimPrefix(ep, "/")
	return &u
}

func (c *httpClient) Do(ctx context.Context, req *http.Request) (*http.Response, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}
	}

	// Per-request deadlines come from the context, the client itself never times out
	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	return resp, body, err
}
