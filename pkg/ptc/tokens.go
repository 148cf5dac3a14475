// Copyright 2025 Kadir Pekel
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

package ptc

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	tokEncOnce sync.Once
	tokEnc     *tiktoken.Tiktoken
)

// CountTokens estimates the number of model tokens in s using the cl100k_base
// encoding, falling back to a 4-chars-per-token heuristic if the encoder
// can't be loaded (e.g. no network access to fetch its vocabulary file).
func CountTokens(s string) int {
	tokEncOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			tokEnc = enc
		}
	})

	if tokEnc == nil {
		return (len(s) + 3) / 4
	}
	return len(tokEnc.Encode(s, nil, nil))
}
