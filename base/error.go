// Copyright 2022 gorse Project Authors
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

import "github.com/juju/errors"

const (
	// ErrInvalidInput is returned for unknown users, malformed records and schema violations.
	ErrInvalidInput = errors.ConstError("invalid input")
	// ErrEmptyResult is returned when assembly or evaluation produces no usable query group.
	ErrEmptyResult = errors.ConstError("empty result")
	// ErrAlignment is returned when a feature block does not line up with its query group.
	ErrAlignment = errors.ConstError("misaligned query group")
)
