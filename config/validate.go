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

package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorse-io/ltr/base"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// invalidConfig converts validation failures to ErrInvalidInput with one message per field.
func invalidConfig(validationErrors validator.ValidationErrors) error {
	messages := lo.Map(validationErrors, func(fieldError validator.FieldError, _ int) string {
		return describe(fieldError)
	})
	return errors.Annotate(base.ErrInvalidInput, strings.Join(messages, "; "))
}

func describe(fieldError validator.FieldError) string {
	name := configKey(fieldError.Namespace())
	switch fieldError.Tag() {
	case "required":
		return fmt.Sprintf("value of `%s` in config must not be empty", name)
	case "gt":
		return fmt.Sprintf("value of `%s` in config must be greater than %s, but the current value is %v",
			name, fieldError.Param(), fieldError.Value())
	case "gte":
		return fmt.Sprintf("value of `%s` in config must not be less than %s, but the current value is %v",
			name, fieldError.Param(), fieldError.Value())
	case "lte":
		return fmt.Sprintf("value of `%s` in config must not be greater than %s, but the current value is %v",
			name, fieldError.Param(), fieldError.Value())
	default:
		return fmt.Sprintf("value of `%s` in config is invalid: %v", name, fieldError.Value())
	}
}

// configKey drops the name of the root struct, e.g. Config.training.jobs -> training.jobs.
func configKey(namespace string) string {
	if _, key, found := strings.Cut(namespace, "."); found {
		return key
	}
	return namespace
}
