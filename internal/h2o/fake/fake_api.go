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

package fake

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/thestormforge/glmfuzz/internal/h2o"
	"github.com/thestormforge/glmfuzz/internal/trial"
)

var _ h2o.API = &FakeAPI{}

// GLMFunc produces the response (or failure) for a GLM request
type GLMFunc func(ctx context.Context, datasetKey string, p trial.Assignments) (*h2o.GLMResult, error)

// FakeAPI is an in-memory single node cloud
type FakeAPI struct {
	// GLMFunc overrides the default well formed GLM response
	GLMFunc GLMFunc
	// Nodes is the reported cloud size
	Nodes int

	mu       sync.Mutex
	files    map[string]string
	datasets map[string]string
	requests []trial.Assignments
	shutdown bool
}

// NewFakeAPI returns a fake cloud of one node that answers every GLM request with a well formed model
func NewFakeAPI() *FakeAPI {
	return &FakeAPI{
		Nodes:    1,
		files:    make(map[string]string),
		datasets: make(map[string]string),
	}
}

// Requests returns every GLM request received so far
func (f *FakeAPI) Requests() []trial.Assignments {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]trial.Assignments(nil), f.requests...)
}

// IsShutdown reports whether Shutdown was called
func (f *FakeAPI) IsShutdown() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shutdown
}

func (f *FakeAPI) Cloud(context.Context) (h2o.CloudStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.shutdown {
		return h2o.CloudStatus{}, &h2o.Error{Type: h2o.ErrCloudUnavailable}
	}
	cs := h2o.CloudStatus{Version: "0.0.0-fake", CloudName: "fake", CloudSize: f.Nodes, Consensus: true, Locked: true}
	for i := 0; i < f.Nodes; i++ {
		cs.Nodes = append(cs.Nodes, h2o.Node{Name: fmt.Sprintf("/127.0.0.1:%d", 54321+2*i)})
	}
	if len(cs.Nodes) > 0 {
		cs.NodeName = cs.Nodes[0].Name
	}
	return cs, nil
}

func (f *FakeAPI) ImportFile(ctx context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := "nfs:/" + path
	f.files[key] = path
	return key, nil
}

func (f *FakeAPI) Parse(ctx context.Context, sourceKey string) (h2o.ParseResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[sourceKey]; !ok {
		return h2o.ParseResult{}, &h2o.Error{Type: h2o.ErrNotFound, Message: "unknown key " + sourceKey}
	}
	key := sourceKey + ".hex"
	f.datasets[key] = sourceKey
	return h2o.ParseResult{DestinationKey: key, Response: h2o.ResponseStatus{Status: "done"}}, nil
}

func (f *FakeAPI) GLM(ctx context.Context, datasetKey string, p trial.Assignments) (*h2o.GLMResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, p.Copy())
	_, ok := f.datasets[datasetKey]
	fn := f.GLMFunc
	f.mu.Unlock()

	if !ok {
		return nil, &h2o.Error{Type: h2o.ErrNotFound, Message: "unknown dataset " + datasetKey}
	}
	if fn != nil {
		return fn(ctx, datasetKey, p)
	}
	return ModelResponse(datasetKey, p)
}

func (f *FakeAPI) Shutdown(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdown = true
	return nil
}

// ModelResponse builds a well formed GLM response for the supplied request
func ModelResponse(datasetKey string, p trial.Assignments) (*h2o.GLMResult, error) {
	xval, _ := p.Int64("xval")

	coefficients := map[string]float64{"Intercept": -0.42}
	for i := 0; i < 54; i++ {
		coefficients[fmt.Sprintf("%d", i)] = 0.001 * float64(i+1)
	}

	validation := map[string]interface{}{
		"dataset": datasetKey,
		"err":     0.21,
		"nullDev": 5123.4,
		"resDev":  4012.8,
		"aic":     8123.0,
	}
	if xval > 1 {
		folds := make([]map[string]interface{}, xval)
		for i := range folds {
			folds[i] = map[string]interface{}{"err": 0.2, "nullDev": 512.3, "resDev": 401.2}
		}
		validation["xval"] = folds
	}

	model := map[string]interface{}{
		"key": datasetKey + ".glm",
		"GLMModel": map[string]interface{}{
			"time":         12,
			"iterations":   4,
			"GLMParams":    map[string]interface{}{"family": p["family"], "link": "log"},
			"coefficients": coefficients,
			"warnings":     []string{},
			"validations":  []interface{}{validation},
		},
	}

	b, err := json.Marshal(model)
	if err != nil {
		return nil, err
	}
	return &h2o.GLMResult{Raw: b}, nil
}
