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

package dataset

import (
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const covtype = "UCI/UCI-large/covtype/covtype.data"

func writeFile(t *testing.T, path, contents string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, ioutil.WriteFile(path, []byte(contents), 0600))
}

func TestResolver_Find(t *testing.T) {
	tmp := t.TempDir()
	wd := filepath.Join(tmp, "repo", "py", "testdir_single_jvm")
	require.NoError(t, os.MkdirAll(wd, 0700))

	upward := filepath.Join(tmp, "datasets", covtype)
	writeFile(t, upward, "1,2,3\n")

	root := filepath.Join(tmp, "root")
	rootOnly := filepath.Join(root, "smalldata", "poisson.csv")
	writeFile(t, rootOnly, "1,2\n")

	preferred := filepath.Join(tmp, "repo", "my-h2o-datasets", "smalldata", "logreg.csv")
	writeFile(t, preferred, "0,1\n")

	r := &Resolver{WorkingDir: wd, Roots: []string{root}}

	cases := []struct {
		desc     string
		rel      string
		expected string
	}{
		{desc: "parent directory tree", rel: covtype, expected: upward},
		{desc: "closer tree wins", rel: "smalldata/logreg.csv", expected: preferred},
		{desc: "configured root", rel: "smalldata/poisson.csv", expected: rootOnly},
		{desc: "absolute path", rel: rootOnly, expected: rootOnly},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			p, err := r.Find(c.rel)
			require.NoError(t, err)
			assert.Equal(t, c.expected, p)
		})
	}
}

func TestFindDataset(t *testing.T) {
	root := filepath.Join(t.TempDir(), "root")
	poisson := filepath.Join(root, "smalldata", "glmfuzz-poisson.csv")
	writeFile(t, poisson, "1,2\n")

	p, err := FindDataset("smalldata/glmfuzz-poisson.csv", root)
	require.NoError(t, err)
	assert.Equal(t, poisson, p)

	p, err = FindDataset(poisson)
	require.NoError(t, err)
	assert.Equal(t, poisson, p)

	_, err = FindDataset("smalldata/glmfuzz-missing.csv")
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Contains(t, notFound.Searched, filepath.Join(DefaultRoots[0], "smalldata/glmfuzz-missing.csv"))
}

func TestResolver_NotFound(t *testing.T) {
	tmp := t.TempDir()
	r := &Resolver{WorkingDir: tmp, Roots: []string{filepath.Join(tmp, "nowhere")}}

	_, err := r.Find("missing.csv")
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "missing.csv", nf.Path)
	assert.Contains(t, nf.Searched, filepath.Join(tmp, "datasets", "missing.csv"))
	assert.Contains(t, nf.Searched, filepath.Join(tmp, "nowhere", "missing.csv"))

	_, err = r.Find(filepath.Join(tmp, "missing.csv"))
	assert.True(t, errors.As(err, &nf))
}

func TestResolver_Directory(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "datasets", "UCI"), 0700))

	_, err := (&Resolver{WorkingDir: tmp}).Find("UCI")
	assert.Error(t, err, "directories are not datasets")
}

func TestResolver_Fetch(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			requests++
		}
		_, _ = fmt.Fprint(w, "2596,51,3,258,0,510,221,232,148,6279,5\n")
	}))
	defer srv.Close()

	r := &Resolver{WorkingDir: t.TempDir(), CacheDir: t.TempDir()}
	src := srv.URL + "/covtype.data"

	p, err := r.Find(src)
	require.NoError(t, err)
	assert.Equal(t, "covtype.data", filepath.Base(p)[33:])

	b, err := ioutil.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "2596,51,3,258,0,510,221,232,148,6279,5\n", string(b))

	// Second lookup comes from the cache
	again, err := r.Find(src)
	require.NoError(t, err)
	assert.Equal(t, p, again)
	assert.Equal(t, 1, requests)
}
