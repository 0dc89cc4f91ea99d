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
	"strings"
)

// RunHeader is the request header used to tag every request of a fuzzing run
const RunHeader = "X-Glmfuzz-Run"

// UserAgent wraps the (possibly nil) transport so that it will set the user agent
// using the supplied product name and current version
func UserAgent(product, comment string, transport http.RoundTripper) http.RoundTripper {
	return &Transport{
		UserAgent: userAgentString(product, comment),
		Base:      transport,
	}
}

// Transport sets the `User-Agent` header and, once a run has started, the run identifier
type Transport struct {
	// UserAgent string to use, defaults to "glmfuzz/{version}" if unset
	UserAgent string
	// RunID is sent in the RunHeader when non-empty
	RunID string
	// Base transport to use, uses the system default if nil
	Base http.RoundTripper
}

// RoundTrip sets the outgoing request headers and delegates to the base transport
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.userAgent())
	if t.RunID != "" {
		r.Header.Set(RunHeader, t.RunID)
	}
	return t.base().RoundTrip(r)
}

func (t *Transport) userAgent() string {
	if t.UserAgent != "" {
		return t.UserAgent
	}
	return userAgentString("glmfuzz", "")
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func userAgentString(product, comment string) string {
	if product == "" {
		return ""
	}

	ua := strings.Builder{}
	ua.WriteString(product)
	ua.WriteRune('/')
	ua.WriteString(strings.TrimPrefix(GetInfo().Version, "v"))

	var comments []string

	// Build metadata only matters for pre-release builds
	if strings.Contains(Version, "-") && BuildMetadata != "" {
		comments = append(comments, BuildMetadata)
	}

	comment = strings.TrimSpace(comment)
	comment = strings.Trim(comment, "()")
	comment = strings.TrimSpace(comment)
	if comment != "" {
		comments = append(comments, comment)
	}

	if len(comments) > 0 {
		ua.WriteString(" (" + strings.Join(comments, "; ") + ")")
	}

	return ua.String()
}
