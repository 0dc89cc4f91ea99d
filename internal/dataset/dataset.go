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

// Package dataset locates the data files used by the fuzzer.
package dataset

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yujunz/go-getter"
)

// DefaultRoots are searched after the working directory and its parents
var DefaultRoots = []string{"/home/0xdiag/datasets"}

// Directory names recognized as dataset trees when walking up from the working directory
var treeNames = []string{"my-h2o-datasets", "datasets"}

// NotFoundError is returned when no search location holds the dataset
type NotFoundError struct {
	Path     string
	Searched []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("dataset %s not found (searched %s)", e.Path, strings.Join(e.Searched, ", "))
}

// Resolver finds datasets by relative path
type Resolver struct {
	// WorkingDir is where the upward search starts, defaults to the current directory
	WorkingDir string
	// Roots are additional dataset directories, searched in order after the upward search
	Roots []string
	// CacheDir receives datasets fetched from remote sources, defaults to the system temporary directory
	CacheDir string
}

// FindDataset returns the absolute path of a dataset, the default roots are used when none are supplied
func FindDataset(rel string, roots ...string) (string, error) {
	if len(roots) == 0 {
		roots = DefaultRoots
	}
	return (&Resolver{Roots: roots}).Find(rel)
}

// Find returns the absolute path of the dataset. Absolute paths are returned as-is if they exist. Sources with
// a go-getter scheme (e.g. "https://", "s3::") are fetched into the cache directory first.
func (r *Resolver) Find(rel string) (string, error) {
	wd, err := r.workingDir()
	if err != nil {
		return "", err
	}

	if isRemote(rel, wd) {
		return r.Fetch(rel)
	}

	if filepath.IsAbs(rel) {
		if _, err := os.Stat(rel); err != nil {
			return "", &NotFoundError{Path: rel, Searched: []string{rel}}
		}
		return rel, nil
	}

	var searched []string
	for _, dir := range r.candidates(wd) {
		p := filepath.Join(dir, rel)
		searched = append(searched, p)
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return filepath.Abs(p)
		}
	}
	return "", &NotFoundError{Path: rel, Searched: searched}
}

// Fetch downloads a remote dataset into the cache directory and returns the local path
func (r *Resolver) Fetch(src string) (string, error) {
	wd, err := r.workingDir()
	if err != nil {
		return "", err
	}

	cache := r.CacheDir
	if cache == "" {
		cache = filepath.Join(os.TempDir(), "glmfuzz-datasets")
	}
	if err := os.MkdirAll(cache, 0700); err != nil {
		return "", err
	}

	// Remote sources are immutable for the purposes of a run, reuse anything already fetched
	path := filepath.Join(cache, fmt.Sprintf("%x-%s", md5.Sum([]byte(src)), baseName(src)))
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	c := getter.Client{
		Src: src,
		Dst: path,
		Pwd: wd,
	}
	if err := c.Get(); err != nil {
		return "", fmt.Errorf("unable to fetch dataset: %w", err)
	}
	return path, nil
}

func (r *Resolver) workingDir() (string, error) {
	if r.WorkingDir != "" {
		return r.WorkingDir, nil
	}
	return os.Getwd()
}

// candidates returns the dataset directories from the working directory up to the file system root, then the roots
func (r *Resolver) candidates(wd string) []string {
	var dirs []string
	for dir := wd; ; {
		for _, name := range treeNames {
			dirs = append(dirs, filepath.Join(dir, name))
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return append(dirs, r.Roots...)
}

func isRemote(src, wd string) bool {
	u, err := getter.Detect(src, wd, getter.Detectors)
	return err == nil && !strings.HasPrefix(u, "file:")
}

func baseName(src string) string {
	if i := strings.Index(src, "?"); i >= 0 {
		src = src[:i]
	}
	return filepath.Base(src)
}
