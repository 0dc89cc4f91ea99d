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

package driver

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// Style identifies a kind of report line
type Style int

const (
	Seed Style = iota
	Parameters
	Took
	Completed
	Warning
	Failure
)

type statusOptions struct {
	Prefix string
	Color  string
}

var statusConfig = map[Style]statusOptions{
	Seed:       {Prefix: "🎲  "},
	Parameters: {Prefix: "    ▪ ", Color: "241"},
	Took:       {Prefix: "    ▪ ", Color: "241"},
	Completed:  {Prefix: "👍  ", Color: "2"},
	Warning:    {Prefix: "😬  ", Color: "3"},
	Failure:    {Prefix: "❌  ", Color: "1"},
}

// report writes the human readable trial report
type report struct {
	out     io.Writer
	profile termenv.Profile
}

// step writes a single stylized line
func (r *report) step(style Style, format string, args ...interface{}) {
	s := statusConfig[style]
	st := termenv.Style{}
	if s.Color != "" {
		st = st.Foreground(r.profile.Color(s.Color))
	}
	_, _ = fmt.Fprintln(r.out, s.Prefix+st.Styled(fmt.Sprintf(format, args...)))
}
