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

import "strings"

const defaultVersion = "v0.0.0-source"

// These variables are overwritten at build time using ldflags
var (
	Version       = defaultVersion
	BuildMetadata = ""
	GitCommit     = ""
)

// Info describes the build of the fuzzer
type Info struct {
	Version       string `json:"version"`
	BuildMetadata string `json:"build,omitempty"`
	GitCommit     string `json:"gitCommit,omitempty"`
}

// GetInfo returns the current build information
func GetInfo() *Info {
	info := &Info{
		Version:       Version,
		BuildMetadata: BuildMetadata,
		GitCommit:     GitCommit,
	}

	// Protect against a bad ldflags value
	if info.Version == "" {
		info.Version = defaultVersion
	}

	return info
}

// String returns a semver compatible version string, build metadata is only included on pre-release versions
func (i *Info) String() string {
	if i.BuildMetadata != "" && strings.Contains(i.Version, "-") {
		return i.Version + "+" + i.BuildMetadata
	}
	return i.Version
}
