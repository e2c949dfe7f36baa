// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package scm

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/NVIDIA/gitops-portal/pkg/config"
	"github.com/NVIDIA/gitops-portal/pkg/errors"
	"github.com/NVIDIA/gitops-portal/pkg/manifest"
)

// Provider submits change requests to one Git host.
type Provider interface {
	// SubmitChangeRequest commits cr.Files on a new branch and opens a
	// pull or merge request for it.
	SubmitChangeRequest(ctx context.Context, cr *ChangeRequest) (*Result, error)
}

// ChangeRequest is one submission. The target repository comes from the
// provider configuration.
type ChangeRequest struct {
	AppName string
	// BaseBranch overrides the configured base branch when set.
	BaseBranch string
	Files      *manifest.ManifestSet
	Title      string
	Body       string
}

// Validate checks that the request can be submitted.
func (cr *ChangeRequest) Validate() error {
	if cr == nil {
		return errors.New(errors.ErrCodeInvalidRequest, "change request is required")
	}
	if cr.AppName == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "app name is required")
	}
	if cr.Files == nil || cr.Files.Len() == 0 {
		return errors.New(errors.ErrCodeInvalidRequest, "change request has no files")
	}
	if cr.Title == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "title is required")
	}
	return nil
}

// CommitMessage returns the message of the manifest commit.
func (cr *ChangeRequest) CommitMessage() string {
	return fmt.Sprintf("feat: add %s manifests", cr.AppName)
}

// Result describes a created pull or merge request.
type Result struct {
	URL        string `json:"url" yaml:"url"`
	Branch     string `json:"branch" yaml:"branch"`
	BaseBranch string `json:"baseBranch" yaml:"baseBranch"`
}

// Factory builds a Provider from configuration.
type Factory func(cfg *config.Config) (Provider, error)

var (
	factories   = make(map[config.ProviderType]Factory)
	factoriesMu sync.RWMutex
)

// Register makes a provider available to New. It fails if the type is
// already registered.
func Register(t config.ProviderType, f Factory) error {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	if _, exists := factories[t]; exists {
		return fmt.Errorf("provider %s already registered", t)
	}
	factories[t] = f
	return nil
}

// MustRegister is Register for init functions.
func MustRegister(t config.ProviderType, f Factory) {
	if err := Register(t, f); err != nil {
		panic(err)
	}
}

// Registered returns the registered provider types, sorted.
func Registered() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	out := make([]string, 0, len(factories))
	for t := range factories {
		out = append(out, string(t))
	}
	sort.Strings(out)
	return out
}

// New builds the provider selected by cfg.Provider.
func New(cfg *config.Config) (Provider, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrCodeConfiguration, "configuration is required")
	}

	factoriesMu.RLock()
	f, ok := factories[cfg.Provider]
	factoriesMu.RUnlock()

	if !ok {
		return nil, errors.NewWithContext(errors.ErrCodeConfiguration,
			fmt.Sprintf("unsupported provider %q", cfg.Provider),
			map[string]any{"registered": Registered()})
	}
	return f(cfg)
}
