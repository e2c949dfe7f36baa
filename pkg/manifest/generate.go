package manifest

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/utils/ptr"

	"github.com/NVIDIA/gitops-portal/pkg/defaults"
	"github.com/NVIDIA/gitops-portal/pkg/errors"
)

// Label keys applied to every generated object.
const (
	LabelName     = "app.kubernetes.io/name"
	LabelInstance = "app.kubernetes.io/instance"
)

const (
	kustomizeAPIVersion = "kustomize.config.k8s.io/v1beta1"
	kustomizeKind       = "Kustomization"
)

// Generate renders the manifest set for req. The only failure is an invalid
// request.
func Generate(req DeploymentRequest) (*ManifestSet, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	labels := Labels(req.AppName)

	docs := map[string]any{
		DeploymentFile:    deployment(req, labels),
		ServiceFile:       service(req, labels),
		IngressFile:       ingress(req, labels),
		KustomizationFile: kustomization(req),
	}

	set := &ManifestSet{files: make([]File, 0, len(fileOrder))}
	for _, name := range fileOrder {
		content, err := encode(docs[name])
		if err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeInternal,
				"failed to render manifest", err, map[string]any{"file": name})
		}
		set.files = append(set.files, File{Name: name, Content: content})
	}
	return set, nil
}

// Labels returns the labels linking every generated object to appName.
func Labels(appName string) map[string]string {
	return map[string]string{
		LabelName:     appName,
		LabelInstance: appName,
	}
}

func deployment(req DeploymentRequest, labels map[string]string) *appsv1.Deployment {
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:   req.AppName,
			Labels: labels,
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To(req.Replicas),
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{{
						Name:  req.AppName,
						Image: req.Image,
						Ports: []corev1.ContainerPort{{
							Name:          defaults.ContainerPortName,
							ContainerPort: defaults.ContainerPort,
						}},
						ReadinessProbe: &corev1.Probe{
							ProbeHandler: corev1.ProbeHandler{
								HTTPGet: &corev1.HTTPGetAction{
									Path: "/",
									Port: intstr.FromInt32(defaults.ContainerPort),
								},
							},
						},
					}},
				},
			},
		},
	}
}

func service(req DeploymentRequest, labels map[string]string) *corev1.Service {
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:   req.AppName,
			Labels: labels,
		},
		Spec: corev1.ServiceSpec{
			Selector: labels,
			Ports: []corev1.ServicePort{{
				Name:       defaults.ContainerPortName,
				Port:       defaults.ContainerPort,
				TargetPort: intstr.FromInt32(defaults.ContainerPort),
			}},
		},
	}
}

func ingress(req DeploymentRequest, labels map[string]string) *networkingv1.Ingress {
	return &networkingv1.Ingress{
		ObjectMeta: metav1.ObjectMeta{
			Name:   req.AppName,
			Labels: labels,
		},
		Spec: networkingv1.IngressSpec{
			Rules: []networkingv1.IngressRule{{
				Host: req.Host,
				IngressRuleValue: networkingv1.IngressRuleValue{
					HTTP: &networkingv1.HTTPIngressRuleValue{
						Paths: []networkingv1.HTTPIngressPath{{
							Path:     "/",
							PathType: ptr.To(networkingv1.PathTypePrefix),
							Backend: networkingv1.IngressBackend{
								Service: &networkingv1.IngressServiceBackend{
									Name: req.AppName,
									Port: networkingv1.ServiceBackendPort{Number: defaults.ContainerPort},
								},
							},
						}},
					},
				},
			}},
		},
	}
}

// kustomization has no typed API object in the Kubernetes API packages, so it
// is built as an unstructured map.
func kustomization(req DeploymentRequest) map[string]any {
	return map[string]any{
		"apiVersion": kustomizeAPIVersion,
		"kind":       kustomizeKind,
		"metadata": map[string]any{
			"name": req.AppName + "-kustomization",
		},
		"namespace": req.AppName,
		"resources": []any{DeploymentFile, ServiceFile, IngressFile},
	}
}

// encode converts typed objects to unstructured form and writes YAML with
// sorted keys.
func encode(doc any) (string, error) {
	var obj map[string]any

	switch v := doc.(type) {
	case runtime.Object:
		u, err := toUnstructured(v)
		if err != nil {
			return "", err
		}
		obj = u
	case map[string]any:
		obj = v
	default:
		return "", fmt.Errorf("unsupported document type %T", doc)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(obj); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func toUnstructured(obj runtime.Object) (map[string]any, error) {
	gvks, _, err := scheme.Scheme.ObjectKinds(obj)
	if err != nil {
		return nil, err
	}
	obj = obj.DeepCopyObject()
	obj.GetObjectKind().SetGroupVersionKind(gvks[0])

	u, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return nil, err
	}

	unstructured.RemoveNestedField(u, "status")
	unstructured.RemoveNestedField(u, "metadata", "creationTimestamp")
	unstructured.RemoveNestedField(u, "spec", "template", "metadata", "creationTimestamp")
	prune(u)
	return u, nil
}

// prune drops nil values and maps left empty by zero-valued structs.
func prune(m map[string]any) {
	for k, v := range m {
		switch val := v.(type) {
		case nil:
			delete(m, k)
		case map[string]any:
			prune(val)
			if len(val) == 0 {
				delete(m, k)
			}
		case []any:
			for _, item := range val {
				if im, ok := item.(map[string]any); ok {
					prune(im)
				}
			}
		}
	}
}
