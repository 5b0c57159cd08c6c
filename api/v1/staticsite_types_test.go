package v1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReplicas_Default(t *testing.T) {
	t.Parallel()

	spec := &StaticSiteSpec{}

	assert.Equal(t, int32(1), spec.GetReplicas())
}

func TestGetReplicas_Explicit(t *testing.T) {
	t.Parallel()

	replicas := int32(3)
	spec := &StaticSiteSpec{Replicas: &replicas}

	assert.Equal(t, int32(3), spec.GetReplicas())
}

func TestGetReplicas_Zero(t *testing.T) {
	t.Parallel()

	replicas := int32(0)
	spec := &StaticSiteSpec{Replicas: &replicas}

	assert.Equal(t, int32(0), spec.GetReplicas())
}

func TestGetServiceType_Default(t *testing.T) {
	t.Parallel()

	spec := &StaticSiteSpec{}

	assert.Equal(t, ServiceTypeClusterIP, spec.GetServiceType())
}

func TestGetServiceType_NodePort(t *testing.T) {
	t.Parallel()

	spec := &StaticSiteSpec{ServiceType: ServiceTypeNodePort}

	assert.Equal(t, ServiceTypeNodePort, spec.GetServiceType())
}

func TestGetHTML_Default(t *testing.T) {
	t.Parallel()

	spec := &StaticSiteSpec{}

	assert.Equal(t, DefaultHTML, spec.GetHTML())
}

func TestGetHTML_Explicit(t *testing.T) {
	t.Parallel()

	spec := &StaticSiteSpec{HTML: "<h1>hi</h1>"}

	assert.Equal(t, "<h1>hi</h1>", spec.GetHTML())
}

func TestHasIngress(t *testing.T) {
	t.Parallel()

	assert.False(t, (&StaticSiteSpec{}).HasIngress())
	assert.True(t, (&StaticSiteSpec{IngressHost: "example.local"}).HasIngress())
}

func TestHasTLS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		spec     StaticSiteSpec
		expected bool
	}{
		{
			name:     "no_ingress_no_tls",
			spec:     StaticSiteSpec{},
			expected: false,
		},
		{
			name:     "ingress_without_secret",
			spec:     StaticSiteSpec{IngressHost: "example.local"},
			expected: false,
		},
		{
			name:     "secret_without_ingress",
			spec:     StaticSiteSpec{TLSSecretName: "site-tls"},
			expected: false,
		},
		{
			name:     "ingress_with_secret",
			spec:     StaticSiteSpec{IngressHost: "example.local", TLSSecretName: "site-tls"},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, tt.spec.HasTLS())
		})
	}
}

func TestCustomResourceDefinition(t *testing.T) {
	t.Parallel()

	crd := CustomResourceDefinition()

	assert.Equal(t, "staticsites.web.rootster.xyz", crd.Name)
	assert.Equal(t, "web.rootster.xyz", crd.Spec.Group)
	assert.Equal(t, "StaticSite", crd.Spec.Names.Kind)

	require.Len(t, crd.Spec.Versions, 1)

	version := crd.Spec.Versions[0]
	assert.Equal(t, "v1", version.Name)
	assert.True(t, version.Served)
	assert.True(t, version.Storage)
	require.NotNil(t, version.Subresources)
	assert.NotNil(t, version.Subresources.Status)

	spec := version.Schema.OpenAPIV3Schema.Properties["spec"]
	assert.Contains(t, spec.Properties, "message")
	assert.Contains(t, spec.Properties, "html")
	assert.Contains(t, spec.Properties, "replicas")
	assert.Contains(t, spec.Properties, "serviceType")
	assert.Contains(t, spec.Properties, "ingressHost")
	assert.Contains(t, spec.Properties, "tlsSecretName")

	serviceType := spec.Properties["serviceType"]
	assert.Len(t, serviceType.Enum, 2)
}
