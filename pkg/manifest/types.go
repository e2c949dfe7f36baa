package manifest

import (
	"fmt"
	"path"
	"strings"

	"github.com/distribution/reference"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/NVIDIA/gitops-portal/pkg/defaults"
	"github.com/NVIDIA/gitops-portal/pkg/errors"
)

// File names of the generated documents.
const (
	DeploymentFile    = "deployments.yaml"
	ServiceFile       = "services.yaml"
	IngressFile       = "ingress.yaml"
	KustomizationFile = "kustomization.yaml"
)

// fileOrder is the fixed order of documents in a ManifestSet.
var fileOrder = []string{DeploymentFile, ServiceFile, IngressFile, KustomizationFile}

// ImageSelection is a repository and tag picked from the registry.
type ImageSelection struct {
	Repository string `json:"repository" yaml:"repository"`
	Tag        string `json:"tag" yaml:"tag"`
}

// DeploymentRequest holds the user-supplied deployment parameters.
type DeploymentRequest struct {
	AppName  string `json:"appName" yaml:"appName"`
	Image    string `json:"image" yaml:"image"`
	Replicas int32  `json:"replicas" yaml:"replicas"`
	Host     string `json:"host" yaml:"host"`
}

// WithDefaults returns a copy with one replica and host set to the app name
// when they are unset.
func (r DeploymentRequest) WithDefaults() DeploymentRequest {
	if r.Replicas == 0 {
		r.Replicas = defaults.MinReplicas
	}
	if r.Host == "" {
		r.Host = r.AppName
	}
	return r
}

// Validate checks the request. The returned error is INVALID_REQUEST with the
// offending field in its context.
func (r DeploymentRequest) Validate() error {
	if msgs := validation.IsDNS1123Label(r.AppName); len(msgs) > 0 {
		return invalidField("appName", r.AppName, strings.Join(msgs, "; "))
	}
	if r.Image == "" {
		return invalidField("image", r.Image, "image is required")
	}
	if _, err := reference.ParseNormalizedNamed(r.Image); err != nil {
		return invalidField("image", r.Image, err.Error())
	}
	if r.Replicas < defaults.MinReplicas || r.Replicas > defaults.MaxReplicas {
		return invalidField("replicas", r.Replicas,
			fmt.Sprintf("must be between %d and %d", defaults.MinReplicas, defaults.MaxReplicas))
	}
	if msgs := validation.IsDNS1123Subdomain(r.Host); len(msgs) > 0 {
		return invalidField("host", r.Host, strings.Join(msgs, "; "))
	}
	return nil
}

func invalidField(field string, value any, reason string) error {
	return errors.NewWithContext(errors.ErrCodeInvalidRequest,
		fmt.Sprintf("invalid %s: %s", field, reason),
		map[string]any{"field": field, "value": value})
}

// File is one rendered document.
type File struct {
	Name    string `json:"name" yaml:"name"`
	Content string `json:"content" yaml:"content"`
}

// ManifestSet is the four documents rendered for one request. It is not
// modified after Generate returns.
type ManifestSet struct {
	files []File
}

// Files returns the documents in their fixed order.
func (s *ManifestSet) Files() []File {
	out := make([]File, len(s.files))
	copy(out, s.files)
	return out
}

// Get returns the content of the named document.
func (s *ManifestSet) Get(name string) (string, bool) {
	for _, f := range s.files {
		if f.Name == name {
			return f.Content, true
		}
	}
	return "", false
}

// Len returns the number of documents.
func (s *ManifestSet) Len() int {
	return len(s.files)
}

// Map returns the documents keyed by file name.
func (s *ManifestSet) Map() map[string]string {
	m := make(map[string]string, len(s.files))
	for _, f := range s.files {
		m[f.Name] = f.Content
	}
	return m
}

// Paths returns the documents keyed by their repository path
// apps/{appName}/{file}, in fixed order.
func (s *ManifestSet) Paths(appName string) []File {
	out := make([]File, 0, len(s.files))
	for _, f := range s.files {
		out = append(out, File{Name: Path(appName, f.Name), Content: f.Content})
	}
	return out
}

// Path returns the repository path of file for appName.
func Path(appName, file string) string {
	return path.Join(defaults.AppsPathPrefix, appName, file)
}

// ImageReference composes host/project/repository:tag from the registry URL
// and a selection. The scheme is dropped from registryURL.
func ImageReference(registryURL, project string, sel ImageSelection) (string, error) {
	host := registryURL
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	host = strings.TrimSuffix(host, "/")

	tag := sel.Tag
	if tag == "" {
		tag = defaults.FallbackTag
	}

	image := fmt.Sprintf("%s/%s/%s:%s", host, project, sel.Repository, tag)

	named, err := reference.ParseNormalizedNamed(image)
	if err != nil {
		return "", errors.WrapWithContext(errors.ErrCodeInvalidRequest,
			"invalid image reference", err, map[string]any{"image": image})
	}
	if _, ok := named.(reference.Tagged); !ok {
		return "", errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"image reference has no tag", map[string]any{"image": image})
	}
	return named.String(), nil
}
