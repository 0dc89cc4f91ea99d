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
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/thestormforge/glmfuzz/internal/trial"
	"github.com/tidwall/gjson"
	"k8s.io/apimachinery/pkg/util/wait"
)

// DefaultPollInterval is how often asynchronous jobs are checked for completion
const DefaultPollInterval = 500 * time.Millisecond

// NewAPI returns a new API implementation for the specified client
func NewAPI(c Client) API {
	return &httpAPI{client: c, pollInterval: DefaultPollInterval}
}

type httpAPI struct {
	client       Client
	pollInterval time.Duration
}

func (h *httpAPI) Cloud(ctx context.Context) (CloudStatus, error) {
	cs := CloudStatus{}

	body, err := h.get(ctx, endpointCloud, nil)
	if err != nil {
		return cs, err
	}

	err = json.Unmarshal(body, &cs)
	return cs, err
}

func (h *httpAPI) ImportFile(ctx context.Context, path string) (string, error) {
	body, err := h.get(ctx, endpointImportFiles, url.Values{"path": {path}})
	if err != nil {
		return "", err
	}

	if key := gjson.GetBytes(body, "succeeded.0.key"); key.Exists() {
		return key.String(), nil
	}
	if key := gjson.GetBytes(body, "keys.0"); key.Exists() {
		return key.String(), nil
	}

	msg := gjson.GetBytes(body, "failed.0.error").String()
	if msg == "" {
		msg = "no keys imported"
	}
	return "", &Error{Type: ErrImportFailed, Message: fmt.Sprintf("import %s: %s", path, msg)}
}

func (h *httpAPI) Parse(ctx context.Context, sourceKey string) (ParseResult, error) {
	pr := ParseResult{}
	start := time.Now()

	body, err := h.get(ctx, endpointParse, url.Values{"source_key": {sourceKey}})
	if err != nil {
		return pr, err
	}
	if err := json.Unmarshal(body, &pr); err != nil {
		return pr, err
	}

	// The parse runs as a job, follow the redirect until it reports done
	q := url.Values{}
	for k, v := range pr.Response.RedirectRequestArgs {
		q.Set(k, v)
	}
	if q.Get("destination_key") == "" {
		q.Set("destination_key", pr.DestinationKey)
	}

	err = wait.PollImmediateUntil(h.pollInterval, func() (bool, error) {
		switch pr.Response.Status {
		case statusDone, "":
			return true, nil
		case statusError:
			return false, &Error{Type: ErrParseFailed, Message: fmt.Sprintf("parse %s: %s", sourceKey, pr.Response.Error)}
		}

		body, err := h.get(ctx, endpointProgress, q)
		if err != nil {
			return false, err
		}

		progress := ParseResult{}
		if err := json.Unmarshal(body, &progress); err != nil {
			return false, err
		}
		pr.Response = progress.Response
		return pr.Response.Status == statusDone, nil
	}, ctx.Done())
	if err == wait.ErrWaitTimeout && ctx.Err() != nil {
		err = ctx.Err()
	}

	pr.Elapsed = time.Since(start)
	return pr, err
}

func (h *httpAPI) GLM(ctx context.Context, datasetKey string, p trial.Assignments) (*GLMResult, error) {
	q := url.Values{}
	p.Encode(q)
	q.Set("key", datasetKey)

	body, err := h.get(ctx, endpointGLM, q)
	if err != nil {
		return nil, err
	}

	if !json.Valid(body) {
		return nil, &Error{Type: ErrUnexpected, Message: "GLM response is not valid JSON"}
	}
	return &GLMResult{Raw: body}, nil
}

func (h *httpAPI) Shutdown(ctx context.Context) error {
	_, err := h.get(ctx, endpointShutdown, nil)
	return err
}

// get issues a GET request for the endpoint and returns the body of a successful response
func (h *httpAPI) get(ctx context.Context, endpoint string, q url.Values) ([]byte, error) {
	u := h.client.URL(endpoint)
	u.RawQuery = q.Encode()

	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, body, err := h.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// A successful status can still carry a failure
		if msg := gjson.GetBytes(body, "error"); msg.Exists() && msg.String() != "" {
			return nil, newError(ErrServiceFault, resp, body)
		}
		return body, nil
	case http.StatusNotFound:
		return nil, newError(ErrNotFound, resp, body)
	case http.StatusInternalServerError:
		return nil, newError(ErrServiceFault, resp, body)
	case http.StatusServiceUnavailable:
		return nil, newError(ErrCloudUnavailable, resp, body)
	default:
		return nil, newError(ErrUnexpected, resp, body)
	}
}

// newError returns a new error with an API specific error condition, it also captures the details of the response
func newError(t ErrorType, resp *http.Response, body []byte) error {
	err := &Error{Type: t, StatusCode: resp.StatusCode}

	// Unmarshal the response body into the error to get the server supplied error message
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") || json.Valid(body) {
		_ = json.Unmarshal(body, err)
	}

	if resp.Request != nil && resp.Request.URL != nil {
		err.Location = resp.Request.URL.String()
	}

	if err.Message == "" {
		err.Message = fmt.Sprintf("%s (%s)", t, http.StatusText(resp.StatusCode))
	}

	return err
}
