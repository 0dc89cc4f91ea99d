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

package trial

import (
	crypto_rand "crypto/rand"
	"encoding/binary"
	"math/rand"

	"github.com/thestormforge/glmfuzz/internal/params"
)

// Pick is a single random (name, value) draw
type Pick struct {
	Name  string       `json:"name"`
	Value params.Value `json:"value"`
}

// Draw is the outcome of generating one trial
type Draw struct {
	// Size is the number of picks requested for this trial
	Size int `json:"size"`
	// Picks are the individual draws in order, names may repeat
	Picks []Pick `json:"picks"`
	// Request is the baseline with every pick merged over it
	Request Assignments `json:"request"`
	// ColX is the realized feature column, 0 unless a pick selected one
	ColX params.Value `json:"colX"`
}

// Generator produces random trial requests from a parameter space
type Generator struct {
	space params.Space
	names []string
	rnd   *rand.Rand
}

// NewGenerator returns a generator drawing from the supplied space using the supplied source of randomness
func NewGenerator(space params.Space, rnd *rand.Rand) *Generator {
	return &Generator{
		space: space,
		names: space.Names(),
		rnd:   rnd,
	}
}

// NewSeededGenerator returns a generator whose draws are fully determined by the seed
func NewSeededGenerator(space params.Space, seed int64) *Generator {
	return NewGenerator(space, rand.New(rand.NewSource(seed)))
}

// Next draws the next trial request
func (g *Generator) Next() Draw {
	d := Draw{
		Request: Baseline(),
		ColX:    params.Int(0),
	}
	if len(g.names) == 0 {
		return d
	}

	d.Size = 1 + g.rnd.Intn(len(g.names))
	d.Picks = make([]Pick, 0, d.Size)
	for i := 0; i < d.Size; i++ {
		name := g.names[g.rnd.Intn(len(g.names))]
		candidates := g.space[name]
		if len(candidates) == 0 {
			continue
		}
		v := candidates[g.rnd.Intn(len(candidates))]

		d.Picks = append(d.Picks, Pick{Name: name, Value: v})
		d.Request.Merge(name, v)
		if name == params.Feature && !v.IsNull() {
			d.ColX = v
		}
	}
	return d
}

// NewSeed returns a seed derived from the cryptographic random number generator
func NewSeed() int64 {
	var b [8]byte
	if _, err := crypto_rand.Read(b[:]); err != nil {
		panic(err)
	}
	// Keep seeds positive so they are easy to pass back in on the command line
	return int64(binary.LittleEndian.Uint64(b[:]) >> 1)
}
