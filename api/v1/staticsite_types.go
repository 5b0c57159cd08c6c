package v1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ServiceType is the exposure mode for the site's Service.
type ServiceType string

const (
	// ServiceTypeClusterIP exposes the site inside the cluster only.
	ServiceTypeClusterIP ServiceType = "ClusterIP"

	// ServiceTypeNodePort exposes the site on a port of every node.
	ServiceTypeNodePort ServiceType = "NodePort"
)

// DefaultHTML is served when spec.html is empty.
const DefaultHTML = "<!doctype html><html><body><h1>Hello from staticsite-operator</h1></body></html>"

const defaultReplicas int32 = 1

// StaticSiteSpec defines the desired state of a StaticSite.
type StaticSiteSpec struct {
	// Message is echoed into status.observedMessage after a successful
	// reconcile.
	// +optional
	Message string `json:"message,omitempty"`

	// HTML is the page content served at the document root. When empty,
	// a built-in placeholder page is used.
	// +optional
	HTML string `json:"html,omitempty"`

	// Replicas is the number of web server pods to run.
	// +optional
	// +kubebuilder:default=1
	// +kubebuilder:validation:Minimum=0
	Replicas *int32 `json:"replicas,omitempty"`

	// ServiceType selects how the site is exposed.
	// +optional
	// +kubebuilder:default=ClusterIP
	// +kubebuilder:validation:Enum=ClusterIP;NodePort
	ServiceType ServiceType `json:"serviceType,omitempty"`

	// IngressHost enables an Ingress routing this host to the site.
	// When empty, no Ingress is created and an existing one is removed.
	// +optional
	IngressHost string `json:"ingressHost,omitempty"`

	// TLSSecretName references a TLS secret for the Ingress host.
	// Only meaningful when ingressHost is set.
	// +optional
	TLSSecretName string `json:"tlsSecretName,omitempty"`
}

// StaticSiteStatus defines the observed state of a StaticSite.
// It is a projection of the last successfully reconciled spec plus the
// live workload state, written only by the reconciler.
type StaticSiteStatus struct {
	// ObservedMessage mirrors spec.message after a successful reconcile.
	// +optional
	ObservedMessage string `json:"observedMessage,omitempty"`

	// ReadyReplicas mirrors the live Deployment's ready replica count.
	// +optional
	ReadyReplicas int32 `json:"readyReplicas,omitempty"`

	// Conditions describe the current state of the StaticSite.
	// +optional
	// +listType=map
	// +listMapKey=type
	Conditions []metav1.Condition `json:"conditions,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:shortName=site
// +kubebuilder:printcolumn:name="Replicas",type=integer,JSONPath=`.spec.replicas`
// +kubebuilder:printcolumn:name="Ready",type=integer,JSONPath=`.status.readyReplicas`
// +kubebuilder:printcolumn:name="Host",type=string,JSONPath=`.spec.ingressHost`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// StaticSite is the Schema for the staticsites API. It describes a
// static web frontend served by nginx from cluster-managed content.
type StaticSite struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   StaticSiteSpec   `json:"spec,omitempty"`
	Status StaticSiteStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// StaticSiteList contains a list of StaticSite.
type StaticSiteList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []StaticSite `json:"items"`
}

func init() {
	SchemeBuilder.Register(&StaticSite{}, &StaticSiteList{})
}

// GetReplicas returns the desired replica count, defaulting to 1.
func (s *StaticSiteSpec) GetReplicas() int32 {
	if s.Replicas == nil {
		return defaultReplicas
	}
	return *s.Replicas
}

// GetServiceType returns the exposure mode, defaulting to ClusterIP.
func (s *StaticSiteSpec) GetServiceType() ServiceType {
	if s.ServiceType == "" {
		return ServiceTypeClusterIP
	}
	return s.ServiceType
}

// GetHTML returns the page content, defaulting to the placeholder page.
func (s *StaticSiteSpec) GetHTML() string {
	if s.HTML == "" {
		return DefaultHTML
	}
	return s.HTML
}

// HasIngress reports whether an Ingress is desired.
func (s *StaticSiteSpec) HasIngress() bool {
	return s.IngressHost != ""
}

// HasTLS reports whether the Ingress should carry a TLS block.
func (s *StaticSiteSpec) HasTLS() bool {
	return s.HasIngress() && s.TLSSecretName != ""
}
