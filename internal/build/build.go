// Package build computes the desired child manifests for a StaticSite.
// All functions are pure: for a fixed spec they return identical
// objects on every call and never touch the cluster.
package build

import (
	"crypto/sha256"
	"encoding/hex"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	webv1 "github.com/rootster/staticsite-operator/api/v1"
)

const (
	// HTTPPort is the single HTTP port used across all child objects.
	HTTPPort = 80

	// ContentHashAnnotation is stamped on the pod template so that
	// content-only changes roll the Deployment.
	ContentHashAnnotation = "web.rootster.xyz/content-hash"

	// DefaultImage is the operand image when none is configured.
	DefaultImage = "nginx:1.29-alpine"

	// IndexKey is the ConfigMap key holding the page content.
	IndexKey = "index.html"

	documentRoot  = "/usr/share/nginx/html"
	htmlVolume    = "html"
	containerName = "nginx"
)

// Child object names, derived from the StaticSite name. Keep these
// stable: the Ingress references the Service by name and the
// Deployment references the ConfigMap by name.

// ConfigMapName returns the name of the content ConfigMap.
func ConfigMapName(site string) string { return site }

// DeploymentName returns the name of the workload Deployment.
func DeploymentName(site string) string { return site }

// ServiceName returns the name of the exposure Service.
func ServiceName(site string) string { return site + "-service" }

// IngressName returns the name of the optional Ingress.
func IngressName(site string) string { return site }

// SelectorLabels returns the immutable label subset used for pod
// selection. Changing these orphans running pods, so they never carry
// anything version- or content-dependent.
func SelectorLabels(name string) map[string]string {
	return map[string]string{
		"app.kubernetes.io/name":     "staticsite",
		"app.kubernetes.io/instance": name,
	}
}

// Labels returns the full label set applied to every child object.
func Labels(name string) map[string]string {
	labels := SelectorLabels(name)
	labels["app.kubernetes.io/managed-by"] = "staticsite-operator"

	return labels
}

// ContentHash returns the sha256 hex digest of the rendered page
// content.
func ContentHash(html string) string {
	sum := sha256.Sum256([]byte(html))

	return hex.EncodeToString(sum[:])
}

// ConfigMap returns the desired content ConfigMap.
func ConfigMap(site *webv1.StaticSite) *corev1.ConfigMap {
	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      ConfigMapName(site.Name),
			Namespace: site.Namespace,
			Labels:    Labels(site.Name),
		},
		Data: map[string]string{
			IndexKey: site.Spec.GetHTML(),
		},
	}
}

// Deployment returns the desired workload Deployment. The image is
// injected by the operator configuration; everything else derives from
// the spec.
func Deployment(site *webv1.StaticSite, image string) *appsv1.Deployment {
	if image == "" {
		image = DefaultImage
	}

	replicas := site.Spec.GetReplicas()

	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      DeploymentName(site.Name),
			Namespace: site.Namespace,
			Labels:    Labels(site.Name),
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{
				MatchLabels: SelectorLabels(site.Name),
			},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: SelectorLabels(site.Name),
					Annotations: map[string]string{
						ContentHashAnnotation: ContentHash(site.Spec.GetHTML()),
					},
				},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{
						{
							Name:  containerName,
							Image: image,
							Ports: []corev1.ContainerPort{
								{
									Name:          "http",
									ContainerPort: HTTPPort,
									Protocol:      corev1.ProtocolTCP,
								},
							},
							VolumeMounts: []corev1.VolumeMount{
								{
									Name:      htmlVolume,
									MountPath: documentRoot,
									ReadOnly:  true,
								},
							},
						},
					},
					Volumes: []corev1.Volume{
						{
							Name: htmlVolume,
							VolumeSource: corev1.VolumeSource{
								ConfigMap: &corev1.ConfigMapVolumeSource{
									LocalObjectReference: corev1.LocalObjectReference{
										Name: ConfigMapName(site.Name),
									},
								},
							},
						},
					},
				},
			},
		},
	}
}

// Service returns the desired exposure Service.
func Service(site *webv1.StaticSite) *corev1.Service {
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      ServiceName(site.Name),
			Namespace: site.Namespace,
			Labels:    Labels(site.Name),
		},
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceType(site.Spec.GetServiceType()),
			Selector: SelectorLabels(site.Name),
			Ports: []corev1.ServicePort{
				{
					Name:       "http",
					Port:       HTTPPort,
					TargetPort: intstr.FromInt32(HTTPPort),
					Protocol:   corev1.ProtocolTCP,
				},
			},
		},
	}
}

// Ingress returns the desired Ingress. Callers must only invoke it when
// spec.ingressHost is set.
func Ingress(site *webv1.StaticSite) *networkingv1.Ingress {
	pathType := networkingv1.PathTypePrefix

	spec := networkingv1.IngressSpec{
		Rules: []networkingv1.IngressRule{
			{
				Host: site.Spec.IngressHost,
				IngressRuleValue: networkingv1.IngressRuleValue{
					HTTP: &networkingv1.HTTPIngressRuleValue{
						Paths: []networkingv1.HTTPIngressPath{
							{
								Path:     "/",
								PathType: &pathType,
								Backend: networkingv1.IngressBackend{
									Service: &networkingv1.IngressServiceBackend{
										Name: ServiceName(site.Name),
										Port: networkingv1.ServiceBackendPort{
											Number: HTTPPort,
										},
									},
								},
							},
						},
					},
				},
			},
		},
	}

	if site.Spec.HasTLS() {
		spec.TLS = []networkingv1.IngressTLS{
			{
				Hosts:      []string{site.Spec.IngressHost},
				SecretName: site.Spec.TLSSecretName,
			},
		}
	}

	return &networkingv1.Ingress{
		ObjectMeta: metav1.ObjectMeta{
			Name:      IngressName(site.Name),
			Namespace: site.Namespace,
			Labels:    Labels(site.Name),
		},
		Spec: spec,
	}
}
