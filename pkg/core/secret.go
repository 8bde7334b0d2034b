// Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied. See the License for the
// specific language governing permissions and limitations
// under the License.

package core

import (
	"crypto/subtle"
	"sync/atomic"
)

// Secret holds the shared admin key. It can be rotated while the server is
// running.
type Secret struct {
	v atomic.Pointer[string]
}

func NewSecret(key string) *Secret {
	s := &Secret{}
	s.Set(key)
	return s
}

func (s *Secret) Set(key string) { s.v.Store(&key) }

func (s *Secret) Get() string {
	if p := s.v.Load(); p != nil {
		return *p
	}
	return ""
}

// Matches reports whether supplied equals the current key. An unset key
// matches nothing.
func (s *Secret) Matches(supplied string) bool {
	return SecretsEqual(supplied, s.Get())
}

func SecretsEqual(supplied, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(expected)) == 1
}
