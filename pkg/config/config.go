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

package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/gitops-portal/pkg/errors"
)

// Environment variables consulted by Load.
const (
	EnvConfigPath       = "PORTAL_CONFIG"
	EnvProvider         = "PORTAL_PROVIDER"
	EnvRegistryPassword = "PORTAL_REGISTRY_PASSWORD"
	EnvGitHubToken      = "PORTAL_GITHUB_TOKEN"
	EnvGitLabToken      = "PORTAL_GITLAB_TOKEN"

	// DefaultPath is used when neither a flag nor PORTAL_CONFIG names a file.
	DefaultPath = "portal.yaml"
)

// ProviderType selects the Git hosting backend.
type ProviderType string

const (
	ProviderGitHub ProviderType = "github"
	ProviderGitLab ProviderType = "gitlab"
)

// SupportedProviders returns the accepted provider names.
func SupportedProviders() []string {
	return []string{string(ProviderGitHub), string(ProviderGitLab)}
}

// RegistryType selects the container registry API flavor.
type RegistryType string

const (
	RegistryHarbor RegistryType = "harbor"
	RegistryOCI    RegistryType = "oci"
)

// SupportedRegistries returns the accepted registry types.
func SupportedRegistries() []string {
	return []string{string(RegistryHarbor), string(RegistryOCI)}
}

var folder = cases.Fold()

// ParseProviderType matches s against the supported providers ignoring case,
// so "GitHub" from older secrets files still resolves.
func ParseProviderType(s string) (ProviderType, bool) {
	switch folder.String(strings.TrimSpace(s)) {
	case string(ProviderGitHub):
		return ProviderGitHub, true
	case string(ProviderGitLab):
		return ProviderGitLab, true
	}
	return "", false
}

// ParseRegistryType matches s against the supported registry types ignoring
// case. Empty defaults to Harbor.
func ParseRegistryType(s string) (RegistryType, bool) {
	switch folder.String(strings.TrimSpace(s)) {
	case "", string(RegistryHarbor):
		return RegistryHarbor, true
	case string(RegistryOCI):
		return RegistryOCI, true
	}
	return "", false
}

// Config is the complete portal configuration.
type Config struct {
	Provider         ProviderType   `yaml:"provider"`
	Registry         RegistryConfig `yaml:"registry"`
	GitHub           GitHubConfig   `yaml:"github"`
	GitLab           GitLabConfig   `yaml:"gitlab"`
	CleanupOnFailure bool           `yaml:"cleanup_on_failure"`
}

// RegistryConfig locates the container registry and its credentials.
type RegistryConfig struct {
	Type      RegistryType `yaml:"type"`
	URL       string       `yaml:"url"`
	Project   string       `yaml:"project"`
	Username  string       `yaml:"username"`
	Password  string       `yaml:"password"`
	PlainHTTP bool         `yaml:"plain_http"`
}

// Host returns the registry host without scheme or trailing slash, as used
// in image references.
func (r RegistryConfig) Host() string {
	if u, err := url.Parse(r.URL); err == nil && u.Host != "" {
		return u.Host
	}
	return strings.TrimSuffix(r.URL, "/")
}

// GitHubConfig targets one repository and base branch on GitHub.
type GitHubConfig struct {
	Token      string `yaml:"token"`
	Repo       string `yaml:"repo"`
	BaseBranch string `yaml:"base_branch"`
	// APIURL overrides the API endpoint, e.g. for GitHub Enterprise.
	APIURL string `yaml:"api_url"`
}

// GitLabConfig targets one project and base branch on GitLab.
type GitLabConfig struct {
	URL        string `yaml:"url"`
	Token      string `yaml:"token"`
	ProjectID  string `yaml:"project_id"`
	BaseBranch string `yaml:"base_branch"`
}

// BaseBranch returns the base branch of the selected provider.
func (c *Config) BaseBranch() string {
	if c.Provider == ProviderGitLab {
		return c.GitLab.BaseBranch
	}
	return c.GitHub.BaseBranch
}

// ResolvePath picks the config file path: the explicit flag value, then
// PORTAL_CONFIG, then DefaultPath.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads, overlays environment overrides, and validates the config file
// at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeConfiguration,
			"failed to read configuration file", err, map[string]any{"path": path})
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	cfg.applyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML configuration without validating it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, "invalid configuration YAML", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvProvider); v != "" {
		c.Provider = ProviderType(v)
	}
	if v := getenv(EnvRegistryPassword); v != "" {
		c.Registry.Password = v
	}
	if v := getenv(EnvGitHubToken); v != "" {
		c.GitHub.Token = v
	}
	if v := getenv(EnvGitLabToken); v != "" {
		c.GitLab.Token = v
	}
}

// Validate normalizes enumerated fields and checks that every key required
// by the selected provider and registry is present.
func (c *Config) Validate() error {
	var missing []string
	require := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}

	provider, ok := ParseProviderType(string(c.Provider))
	if !ok {
		if c.Provider == "" {
			missing = append(missing, "provider")
		} else {
			return errors.NewWithContext(errors.ErrCodeConfiguration,
				fmt.Sprintf("unsupported provider %q", c.Provider),
				map[string]any{"supported": SupportedProviders()})
		}
	}
	c.Provider = provider

	registryType, ok := ParseRegistryType(string(c.Registry.Type))
	if !ok {
		return errors.NewWithContext(errors.ErrCodeConfiguration,
			fmt.Sprintf("unsupported registry type %q", c.Registry.Type),
			map[string]any{"supported": SupportedRegistries()})
	}
	c.Registry.Type = registryType

	require("registry.url", c.Registry.URL)
	require("registry.project", c.Registry.Project)
	if c.Registry.URL != "" {
		if u, err := url.Parse(c.Registry.URL); err != nil || u.Scheme == "" || u.Host == "" {
			return errors.NewWithContext(errors.ErrCodeConfiguration,
				"registry.url must be an absolute URL", map[string]any{"url": c.Registry.URL})
		}
	}

	switch c.Provider {
	case ProviderGitHub:
		require("github.token", c.GitHub.Token)
		require("github.repo", c.GitHub.Repo)
		require("github.base_branch", c.GitHub.BaseBranch)
		if c.GitHub.Repo != "" && len(strings.Split(c.GitHub.Repo, "/")) != 2 {
			return errors.NewWithContext(errors.ErrCodeConfiguration,
				"github.repo must be in owner/name form", map[string]any{"repo": c.GitHub.Repo})
		}
	case ProviderGitLab:
		require("gitlab.url", c.GitLab.URL)
		require("gitlab.token", c.GitLab.Token)
		require("gitlab.project_id", c.GitLab.ProjectID)
		require("gitlab.base_branch", c.GitLab.BaseBranch)
	}

	if len(missing) > 0 {
		return errors.NewWithContext(errors.ErrCodeConfiguration,
			"missing required configuration: "+strings.Join(missing, ", "),
			map[string]any{"missing": missing})
	}
	return nil
}
