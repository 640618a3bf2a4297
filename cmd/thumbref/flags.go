// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"github.com/spf13/pflag"

	"github.com/walteh/thumbref/pkg/text"
)

// formatValue is a pflag.Value that only accepts plain extension tokens
type formatValue struct {
	value string
}

var _ pflag.Value = (*formatValue)(nil)

func (f *formatValue) String() string {
	return f.value
}

func (f *formatValue) Set(s string) error {
	format, err := text.NormalizeFormat(s)
	if err != nil {
		return err
	}
	f.value = format
	return nil
}

func (f *formatValue) Type() string {
	return "format"
}
