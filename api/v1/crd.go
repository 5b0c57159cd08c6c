package v1

import (
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// CustomResourceDefinition returns the staticsites CRD manifest.
// It exists so the CLI can print the schema without relying on
// generated files shipped next to the binary.
//
//nolint:funlen // one declarative literal per schema level
func CustomResourceDefinition() *apiextensionsv1.CustomResourceDefinition {
	defaultReplicasJSON := apiextensionsv1.JSON{Raw: []byte("1")}
	defaultServiceTypeJSON := apiextensionsv1.JSON{Raw: []byte(`"ClusterIP"`)}

	specSchema := apiextensionsv1.JSONSchemaProps{
		Type: "object",
		Properties: map[string]apiextensionsv1.JSONSchemaProps{
			"message": {
				Type:        "string",
				Description: "Echoed into status.observedMessage after a successful reconcile.",
			},
			"html": {
				Type:        "string",
				Description: "Page content served at the document root; a placeholder page is used when empty.",
			},
			"replicas": {
				Type:        "integer",
				Format:      "int32",
				Minimum:     float64Ptr(0),
				Default:     &defaultReplicasJSON,
				Description: "Number of web server pods to run.",
			},
			"serviceType": {
				Type:    "string",
				Default: &defaultServiceTypeJSON,
				Enum: []apiextensionsv1.JSON{
					{Raw: []byte(`"ClusterIP"`)},
					{Raw: []byte(`"NodePort"`)},
				},
				Description: "How the site is exposed.",
			},
			"ingressHost": {
				Type:        "string",
				Description: "Host routed to the site via an Ingress; empty disables the Ingress.",
			},
			"tlsSecretName": {
				Type:        "string",
				Description: "TLS secret for the Ingress host; only meaningful with ingressHost.",
			},
		},
	}

	statusSchema := apiextensionsv1.JSONSchemaProps{
		Type: "object",
		Properties: map[string]apiextensionsv1.JSONSchemaProps{
			"observedMessage": {Type: "string"},
			"readyReplicas":   {Type: "integer", Format: "int32"},
			"conditions": {
				Type: "array",
				Items: &apiextensionsv1.JSONSchemaPropsOrArray{
					Schema: &apiextensionsv1.JSONSchemaProps{
						Type:     "object",
						Required: []string{"type", "status", "reason", "lastTransitionTime"},
						Properties: map[string]apiextensionsv1.JSONSchemaProps{
							"type":               {Type: "string"},
							"status":             {Type: "string"},
							"reason":             {Type: "string"},
							"message":            {Type: "string"},
							"lastTransitionTime": {Type: "string", Format: "date-time"},
							"observedGeneration": {Type: "integer", Format: "int64"},
						},
					},
				},
				XListType:    stringPtr("map"),
				XListMapKeys: []string{"type"},
			},
		},
	}

	return &apiextensionsv1.CustomResourceDefinition{
		TypeMeta: metav1.TypeMeta{
			APIVersion: apiextensionsv1.SchemeGroupVersion.String(),
			Kind:       "CustomResourceDefinition",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name: "staticsites." + GroupVersion.Group,
		},
		Spec: apiextensionsv1.CustomResourceDefinitionSpec{
			Group: GroupVersion.Group,
			Names: apiextensionsv1.CustomResourceDefinitionNames{
				Kind:       "StaticSite",
				ListKind:   "StaticSiteList",
				Plural:     "staticsites",
				Singular:   "staticsite",
				ShortNames: []string{"site"},
			},
			Scope: apiextensionsv1.NamespaceScoped,
			Versions: []apiextensionsv1.CustomResourceDefinitionVersion{
				{
					Name:    GroupVersion.Version,
					Served:  true,
					Storage: true,
					Subresources: &apiextensionsv1.CustomResourceSubresources{
						Status: &apiextensionsv1.CustomResourceSubresourceStatus{},
					},
					Schema: &apiextensionsv1.CustomResourceValidation{
						OpenAPIV3Schema: &apiextensionsv1.JSONSchemaProps{
							Type: "object",
							Properties: map[string]apiextensionsv1.JSONSchemaProps{
								"spec":   specSchema,
								"status": statusSchema,
							},
						},
					},
					AdditionalPrinterColumns: []apiextensionsv1.CustomResourceColumnDefinition{
						{Name: "Replicas", Type: "integer", JSONPath: ".spec.replicas"},
						{Name: "Ready", Type: "integer", JSONPath: ".status.readyReplicas"},
						{Name: "Host", Type: "string", JSONPath: ".spec.ingressHost"},
						{Name: "Age", Type: "date", JSONPath: ".metadata.creationTimestamp"},
					},
				},
			},
		},
	}
}

func float64Ptr(v float64) *float64 { return &v }

func stringPtr(v string) *string { return &v }
