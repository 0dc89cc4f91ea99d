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

// Package h2o is a client for the JSON API of the distributed machine learning service.
package h2o

import (
	"context"
	"errors"
	"time"

	"github.com/thestormforge/glmfuzz/internal/trial"
	"github.com/tidwall/gjson"
)

const (
	endpointCloud       = "Cloud.json"
	endpointImportFiles = "ImportFiles.json"
	endpointParse       = "Parse.json"
	endpointProgress    = "Progress.json"
	endpointGLM         = "GLM.json"
	endpointShutdown    = "Shutdown.json"

	statusDone  = "done"
	statusError = "error"
)

// API is the subset of the service used by the fuzzer
type API interface {
	// Cloud returns the current membership of the cloud answering requests
	Cloud(context.Context) (CloudStatus, error)
	// ImportFile makes a file visible to the cloud and returns the source key
	ImportFile(ctx context.Context, path string) (string, error)
	// Parse parses a source key into a dataset, blocking until the parse is done
	Parse(ctx context.Context, sourceKey string) (ParseResult, error)
	// GLM fits a model against the dataset using the supplied parameters
	GLM(ctx context.Context, datasetKey string, p trial.Assignments) (*GLMResult, error)
	// Shutdown asks every node in the cloud to exit
	Shutdown(context.Context) error
}

type ErrorType string

const (
	ErrServiceFault     ErrorType = "service-fault"
	ErrNotFound         ErrorType = "not-found"
	ErrImportFailed     ErrorType = "import-failed"
	ErrParseFailed      ErrorType = "parse-failed"
	ErrCloudUnavailable ErrorType = "cloud-unavailable"
	ErrUnexpected       ErrorType = "unexpected"
)

// Error represents a failure reported by the service, either through the HTTP status or the "error" field
type Error struct {
	Type       ErrorType `json:"-"`
	Message    string    `json:"error"`
	Location   string    `json:"-"`
	StatusCode int       `json:"-"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Type)
}

// IsServiceFault checks to see if the error is a remote computation failure
func IsServiceFault(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == ErrServiceFault
}

// IsNotFound checks to see if the error is a "not found" error
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == ErrNotFound
}

// Node is a single member of the cloud
type Node struct {
	Name       string `json:"name"`
	NumKeys    int    `json:"num_keys"`
	FreeMemory int64  `json:"free_mem_bytes"`
	NumCPUs    int    `json:"num_cpus"`
}

// CloudStatus describes the cloud formation
type CloudStatus struct {
	Version   string `json:"version"`
	CloudName string `json:"cloud_name"`
	NodeName  string `json:"node_name"`
	CloudSize int    `json:"cloud_size"`
	Consensus bool   `json:"consensus"`
	Locked    bool   `json:"locked"`
	Nodes     []Node `json:"nodes"`
}

// Formed checks that the cloud agrees on at least the supplied number of nodes
func (s *CloudStatus) Formed(nodeCount int) bool {
	return s.Consensus && s.CloudSize >= nodeCount
}

// ResponseStatus is the common status block of asynchronous responses
type ResponseStatus struct {
	Status              string            `json:"status"`
	Progress            float64           `json:"progress,omitempty"`
	Time                int64             `json:"time,omitempty"`
	RedirectRequest     string            `json:"redirect_request,omitempty"`
	RedirectRequestArgs map[string]string `json:"redirect_request_args,omitempty"`
	Error               string            `json:"error,omitempty"`
}

// ParseResult identifies a parsed dataset
type ParseResult struct {
	DestinationKey string         `json:"destination_key"`
	Response       ResponseStatus `json:"response"`
	// Elapsed is the wall clock time spent parsing, including polling
	Elapsed time.Duration `json:"-"`
}

// GLMResult is the response of a GLM fit. The body is kept as-is since its structure is exactly what is
// being tested; use Get for path queries.
type GLMResult struct {
	Raw []byte
}

// Get queries the raw response using a GJSON path
func (r *GLMResult) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Raw, path)
}

// Key returns the model key assigned by the service
func (r *GLMResult) Key() string {
	return r.Get("key").String()
}
