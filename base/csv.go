// Copyright 2021 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package base

import (
	"bufio"
	"strings"

	"github.com/juju/errors"
)

// Escape text for csv.
func Escape(text string) string {
	// check if need escape
	if !strings.ContainsAny(text, ",\"\n\r") {
		return text
	}
	// start to encode
	builder := strings.Builder{}
	builder.WriteRune('"')
	for _, c := range text {
		if c == '"' {
			builder.WriteString("\"\"")
		} else {
			builder.WriteRune(c)
		}
	}
	builder.WriteRune('"')
	return builder.String()
}

// ReadLines parse fields of each line for csv file. The handler is called with the
// zero-based record number and the fields of the record. Parsing stops at the first
// error returned by the handler.
func ReadLines(sc *bufio.Scanner, sep rune, handler func(int, []string) error) error {
	lineCount := 0               // record number of current position
	fields := make([]string, 0)  // fields for current record
	builder := strings.Builder{} // string builder for current field
	quoted := false              // whether current position in quote
	for sc.Scan() {
		line := []rune(sc.Text())
		if lineCount == 0 && !quoted && len(line) > 0 && line[0] == '\uFEFF' {
			line = line[1:]
		}
		// start of line
		if quoted {
			builder.WriteString("\r\n")
		} else if len(line) == 0 {
			continue
		}
		// parse line
		for i := 0; i < len(line); i++ {
			if line[i] == sep && !quoted {
				// end of field
				fields = append(fields, builder.String())
				builder.Reset()
			} else if line[i] == '"' {
				if quoted {
					if i+1 >= len(line) || line[i+1] != '"' {
						// end of quoted
						quoted = false
					} else {
						i++
						builder.WriteRune('"')
					}
				} else {
					// start of quoted
					quoted = true
				}
			} else {
				builder.WriteRune(line[i])
			}
		}
		// end of record
		if !quoted {
			fields = append(fields, builder.String())
			builder.Reset()
			if err := handler(lineCount, fields); err != nil {
				return err
			}
			fields = []string{}
			lineCount++
		}
	}
	if quoted {
		return errors.Annotatef(ErrInvalidInput, "unterminated quoted field at record %d", lineCount)
	}
	return errors.Trace(sc.Err())
}

// ColumnIndex maps the header of a csv file to column positions. Every required column
// must be present, otherwise ErrInvalidInput is returned.
func ColumnIndex(header []string, required ...string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, exist := index[name]; exist {
			return nil, errors.Annotatef(ErrInvalidInput, "duplicated column `%s`", name)
		}
		index[name] = i
	}
	var missing []string
	for _, name := range required {
		if _, exist := index[name]; !exist {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Annotatef(ErrInvalidInput, "missing required columns [%s]", strings.Join(missing, ","))
	}
	return index, nil
}
