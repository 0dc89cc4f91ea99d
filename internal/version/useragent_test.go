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

package version

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserAgent(t *testing.T) {
	cases := []struct {
		desc        string
		product     string
		comment     string
		expected    string
		versionInfo *Info
	}{
		{
			desc:     "default",
			expected: "glmfuzz/0.0.0-source",
		},
		{
			desc:        "release version",
			versionInfo: &Info{Version: "v1.2.3"},
			expected:    "glmfuzz/1.2.3",
		},
		{
			desc:     "product",
			product:  "fuzzer",
			expected: "fuzzer/0.0.0-source",
		},
		{
			desc:     "comment",
			product:  "fuzzer",
			comment:  "poisson run",
			expected: "fuzzer/0.0.0-source (poisson run)",
		},
		{
			desc:     "empty parenthesized comment",
			product:  "fuzzer",
			comment:  " (  ) ",
			expected: "fuzzer/0.0.0-source",
		},
		{
			desc:     "parenthesized comment",
			product:  "fuzzer",
			comment:  " ( ping )",
			expected: "fuzzer/0.0.0-source (ping)",
		},
		{
			desc:        "pre-release build metadata",
			product:     "fuzzer",
			comment:     "ping",
			versionInfo: &Info{Version: "v1.2.3-next", BuildMetadata: "build.7"},
			expected:    "fuzzer/1.2.3-next (build.7; ping)",
		},
		{
			desc:        "release build metadata",
			product:     "fuzzer",
			versionInfo: &Info{Version: "v1.2.3", BuildMetadata: "build.7"},
			expected:    "fuzzer/1.2.3",
		},
	}

	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			defer resetVersion()

			if c.versionInfo != nil {
				Version = c.versionInfo.Version
				BuildMetadata = c.versionInfo.BuildMetadata
			}

			ua := UserAgent(c.product, c.comment, nil)
			assert.Equal(t, c.expected, ua.(*Transport).userAgent())
		})
	}
}

func TestTransport_RoundTrip(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	rt := UserAgent("fuzzer", "", nil).(*Transport)
	rt.RunID = "5f0c6c1e"

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := (&http.Client{Transport: rt}).Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "fuzzer/0.0.0-source", got.Get("User-Agent"))
	assert.Equal(t, "5f0c6c1e", got.Get(RunHeader))
	assert.Empty(t, req.Header.Get("User-Agent"), "caller request must not be modified")
}
