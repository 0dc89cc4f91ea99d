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

package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"sigs.k8s.io/yaml"
)

// SetProperty is a configuration change that updates a single property using a dotted name notation
// (e.g. "fuzz.trials"). The value is interpreted as YAML so numbers and booleans keep their type.
func SetProperty(name, value string) Change {
	return func(cfg *Config) error {
		path := strings.Split(name, ".")
		if len(path) < 2 {
			return fmt.Errorf("unknown property: %s", name)
		}

		var v interface{}
		if err := yaml.Unmarshal([]byte(value), &v); err != nil {
			return fmt.Errorf("invalid value for %s: %w", name, err)
		}

		data, err := json.Marshal(cfg)
		if err != nil {
			return err
		}
		m := make(map[string]interface{})
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}

		node := m
		for _, p := range path[:len(path)-1] {
			child, ok := node[p].(map[string]interface{})
			if !ok {
				child = make(map[string]interface{})
				node[p] = child
			}
			node = child
		}
		if v == nil {
			delete(node, path[len(path)-1])
		} else {
			node[path[len(path)-1]] = v
		}

		if data, err = json.Marshal(m); err != nil {
			return err
		}
		updated := Config{}
		if err := yaml.UnmarshalStrict(data, &updated); err != nil {
			return fmt.Errorf("unable to set %s: %w", name, err)
		}
		*cfg = updated
		return nil
	}
}
