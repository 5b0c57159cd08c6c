package controller

import (
	"context"

	"github.com/cockroachdb/errors"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/api/equality"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/util/retry"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/log"

	webv1 "github.com/rootster/staticsite-operator/api/v1"
	"github.com/rootster/staticsite-operator/internal/build"
	"github.com/rootster/staticsite-operator/internal/metrics"
)

type childKind string

const (
	kindConfigMap  childKind = "ConfigMap"
	kindDeployment childKind = "Deployment"
	kindService    childKind = "Service"
	kindIngress    childKind = "Ingress"
)

// child binds one member of the closed child-kind set to its desired
// manifest and its owned-field sync rule. The set is fixed at design
// time; there is no open-ended registration.
type child struct {
	kind    childKind
	desired client.Object
	newLive func() client.Object

	// sync copies operator-owned fields from the desired manifest onto
	// the live object and reports whether anything changed. Fields owned
	// by other actors are left alone.
	sync func(live client.Object) bool

	// remove marks a child that must not exist (Ingress after the host
	// was cleared).
	remove bool
}

// childTable returns the children in their fixed processing order:
// ConfigMap, Deployment, Service, Ingress. The Deployment references
// the ConfigMap by name and the Ingress references the Service by
// name, so the order also dictates what a concurrent observer sees
// first. Do not reorder.
func (r *StaticSiteReconciler) childTable(site *webv1.StaticSite) ([]child, error) {
	configMap := build.ConfigMap(site)
	deployment := build.Deployment(site, r.Image)
	service := build.Service(site)

	children := []child{
		{
			kind:    kindConfigMap,
			desired: configMap,
			newLive: func() client.Object { return &corev1.ConfigMap{} },
			sync: func(live client.Object) bool {
				return syncConfigMap(live.(*corev1.ConfigMap), configMap)
			},
		},
		{
			kind:    kindDeployment,
			desired: deployment,
			newLive: func() client.Object { return &appsv1.Deployment{} },
			sync: func(live client.Object) bool {
				return syncDeployment(live.(*appsv1.Deployment), deployment)
			},
		},
		{
			kind:    kindService,
			desired: service,
			newLive: func() client.Object { return &corev1.Service{} },
			sync: func(live client.Object) bool {
				return syncService(live.(*corev1.Service), service)
			},
		},
	}

	if site.Spec.HasIngress() {
		ingress := build.Ingress(site)
		children = append(children, child{
			kind:    kindIngress,
			desired: ingress,
			newLive: func() client.Object { return &networkingv1.Ingress{} },
			sync: func(live client.Object) bool {
				return syncIngress(live.(*networkingv1.Ingress), ingress)
			},
		})
	} else {
		children = append(children, child{
			kind:   kindIngress,
			remove: true,
			desired: &networkingv1.Ingress{
				ObjectMeta: metav1.ObjectMeta{
					Name:      build.IngressName(site.Name),
					Namespace: site.Namespace,
				},
			},
			newLive: func() client.Object { return &networkingv1.Ingress{} },
		})
	}

	for i := range children {
		if children[i].remove {
			continue
		}

		if err := controllerutil.SetControllerReference(site, children[i].desired, r.Scheme); err != nil {
			return nil, errors.Wrapf(err, "failed to set owner reference on %s", children[i].kind)
		}
	}

	return children, nil
}

// ensureChildren drives every child toward its desired manifest. A
// failure on one child is recorded but does not stop the remaining
// children; the combined error is returned alongside what the pass
// observed about the workload.
func (r *StaticSiteReconciler) ensureChildren(ctx context.Context, site *webv1.StaticSite) observation {
	obs := observation{childrenSynced: true}

	children, err := r.childTable(site)
	if err != nil {
		// Cannot happen once the scheme knows our types; defensive.
		obs.childrenSynced = false
		obs.err = err

		return obs
	}

	var passErr error

	for _, c := range children {
		live, childErr := r.ensureChild(ctx, c)
		if childErr != nil {
			obs.childrenSynced = false
			passErr = errors.CombineErrors(passErr, childErr)

			continue
		}

		if c.kind == kindDeployment {
			if dep, ok := live.(*appsv1.Deployment); ok {
				obs.readyReplicas = dep.Status.ReadyReplicas
			}

			obs.observed = true
		}
	}

	obs.err = passErr

	return obs
}

// ensureChild performs one get-diff-apply step for a single child.
// Absent objects are created, present ones receive a merge patch of
// operator-owned fields only, and converged ones are left untouched.
func (r *StaticSiteReconciler) ensureChild(ctx context.Context, c child) (client.Object, error) {
	logger := log.FromContext(ctx)
	key := client.ObjectKeyFromObject(c.desired)
	live := c.newLive()

	err := r.Get(ctx, key, live)

	switch {
	case apierrors.IsNotFound(err):
		if c.remove {
			return nil, nil
		}

		obj, _ := c.desired.DeepCopyObject().(client.Object)

		if createErr := r.Create(ctx, obj); createErr != nil {
			r.recordChildOp(ctx, c.kind, metrics.OpCreate, metrics.StatusError)

			return nil, errors.Wrapf(createErr, "failed to create %s %s", c.kind, key.Name)
		}

		r.recordChildOp(ctx, c.kind, metrics.OpCreate, metrics.StatusSuccess)
		logger.Info("created child object", "kind", string(c.kind), "name", key.Name)

		return obj, nil
	case err != nil:
		return nil, errors.Wrapf(err, "failed to get %s %s", c.kind, key.Name)
	}

	if c.remove {
		if delErr := r.Delete(ctx, live); delErr != nil && !apierrors.IsNotFound(delErr) {
			r.recordChildOp(ctx, c.kind, metrics.OpDelete, metrics.StatusError)

			return nil, errors.Wrapf(delErr, "failed to delete %s %s", c.kind, key.Name)
		}

		r.recordChildOp(ctx, c.kind, metrics.OpDelete, metrics.StatusSuccess)
		logger.Info("deleted child object", "kind", string(c.kind), "name", key.Name)

		return nil, nil
	}

	patched, patchErr := r.patchIfDrifted(ctx, c, live)
	if patchErr != nil {
		r.recordChildOp(ctx, c.kind, metrics.OpPatch, metrics.StatusError)

		return nil, patchErr
	}

	if patched {
		r.recordChildOp(ctx, c.kind, metrics.OpPatch, metrics.StatusSuccess)

		if r.Metrics != nil {
			r.Metrics.RecordDriftCorrection(ctx, string(c.kind))
		}

		logger.Info("corrected child object drift", "kind", string(c.kind), "name", key.Name)
	}

	return live, nil
}

// patchIfDrifted applies operator-owned fields to the live object and
// issues a merge patch only when something actually changed. Conflicts
// from stale reads get a bounded refetch-and-reapply loop.
func (r *StaticSiteReconciler) patchIfDrifted(ctx context.Context, c child, live client.Object) (bool, error) {
	orig, _ := live.DeepCopyObject().(client.Object)

	if !c.sync(live) {
		return false, nil
	}

	err := r.Patch(ctx, live, client.MergeFrom(orig))
	if apierrors.IsConflict(err) {
		err = retry.RetryOnConflict(retry.DefaultRetry, func() error {
			fresh := c.newLive()
			if getErr := r.Get(ctx, client.ObjectKeyFromObject(live), fresh); getErr != nil {
				return getErr
			}

			base, _ := fresh.DeepCopyObject().(client.Object)
			if !c.sync(fresh) {
				return nil
			}

			//nolint:wrapcheck // wrapped by the caller below
			return r.Patch(ctx, fresh, client.MergeFrom(base))
		})
	}

	if err != nil {
		return false, errors.Wrapf(err, "failed to patch %s %s", c.kind, live.GetName())
	}

	return true, nil
}

func (r *StaticSiteReconciler) recordChildOp(ctx context.Context, kind childKind, op, status string) {
	if r.Metrics != nil {
		r.Metrics.RecordChildOperation(ctx, string(kind), op, status)
	}
}

// mergeLabels folds the desired labels into the live object's labels,
// leaving labels set by other actors in place.
func mergeLabels(live client.Object, want map[string]string) bool {
	labels := live.GetLabels()
	if labels == nil {
		labels = map[string]string{}
	}

	changed := false

	for k, v := range want {
		if labels[k] != v {
			labels[k] = v
			changed = true
		}
	}

	if changed {
		live.SetLabels(labels)
	}

	return changed
}

func syncConfigMap(live, desired *corev1.ConfigMap) bool {
	changed := mergeLabels(live, desired.Labels)

	if !equality.Semantic.DeepEqual(live.Data, desired.Data) {
		live.Data = desired.Data
		changed = true
	}

	return changed
}

// syncDeployment owns replicas, the nginx container, the html volume
// and the pod template labels/annotations. The selector is immutable
// and never touched; containers and volumes injected by other actors
// are preserved.
func syncDeployment(live, desired *appsv1.Deployment) bool {
	changed := mergeLabels(live, desired.Labels)

	if live.Spec.Replicas == nil || *live.Spec.Replicas != *desired.Spec.Replicas {
		live.Spec.Replicas = desired.Spec.Replicas
		changed = true
	}

	if syncTemplateMeta(&live.Spec.Template, &desired.Spec.Template) {
		changed = true
	}

	if syncContainer(&live.Spec.Template.Spec, &desired.Spec.Template.Spec) {
		changed = true
	}

	if syncVolume(&live.Spec.Template.Spec, &desired.Spec.Template.Spec) {
		changed = true
	}

	return changed
}

func syncTemplateMeta(live, desired *corev1.PodTemplateSpec) bool {
	changed := false

	if live.Labels == nil {
		live.Labels = map[string]string{}
	}

	for k, v := range desired.Labels {
		if live.Labels[k] != v {
			live.Labels[k] = v
			changed = true
		}
	}

	if live.Annotations == nil {
		live.Annotations = map[string]string{}
	}

	for k, v := range desired.Annotations {
		if live.Annotations[k] != v {
			live.Annotations[k] = v
			changed = true
		}
	}

	return changed
}

func syncContainer(live, desired *corev1.PodSpec) bool {
	want := desired.Containers[0]

	for i := range live.Containers {
		if live.Containers[i].Name != want.Name {
			continue
		}

		got := &live.Containers[i]
		changed := false

		if got.Image != want.Image {
			got.Image = want.Image
			changed = true
		}

		if !equality.Semantic.DeepEqual(got.Ports, want.Ports) {
			got.Ports = want.Ports
			changed = true
		}

		if !equality.Semantic.DeepEqual(got.VolumeMounts, want.VolumeMounts) {
			got.VolumeMounts = want.VolumeMounts
			changed = true
		}

		return changed
	}

	live.Containers = append(live.Containers, want)

	return true
}

func syncVolume(live, desired *corev1.PodSpec) bool {
	want := desired.Volumes[0]

	for i := range live.Volumes {
		if live.Volumes[i].Name != want.Name {
			continue
		}

		if equality.Semantic.DeepEqual(live.Volumes[i].VolumeSource, want.VolumeSource) {
			return false
		}

		live.Volumes[i] = want

		return true
	}

	live.Volumes = append(live.Volumes, want)

	return true
}

// syncService owns the type, selector and the single HTTP port. An
// allocated nodePort is preserved, as are other status-like fields the
// API server manages (clusterIP, IP families).
func syncService(live, desired *corev1.Service) bool {
	changed := mergeLabels(live, desired.Labels)

	if live.Spec.Type != desired.Spec.Type {
		live.Spec.Type = desired.Spec.Type
		changed = true
	}

	if !equality.Semantic.DeepEqual(live.Spec.Selector, desired.Spec.Selector) {
		live.Spec.Selector = desired.Spec.Selector
		changed = true
	}

	wantPorts := make([]corev1.ServicePort, len(desired.Spec.Ports))
	copy(wantPorts, desired.Spec.Ports)

	for i := range wantPorts {
		for j := range live.Spec.Ports {
			if live.Spec.Ports[j].Port == wantPorts[i].Port && wantPorts[i].NodePort == 0 {
				wantPorts[i].NodePort = live.Spec.Ports[j].NodePort
			}
		}
	}

	if !equality.Semantic.DeepEqual(live.Spec.Ports, wantPorts) {
		live.Spec.Ports = wantPorts
		changed = true
	}

	return changed
}

// syncIngress owns the rules and the TLS block. The ingress class may
// be defaulted by an admission controller and is left alone.
func syncIngress(live, desired *networkingv1.Ingress) bool {
	changed := mergeLabels(live, desired.Labels)

	if !equality.Semantic.DeepEqual(live.Spec.Rules, desired.Spec.Rules) {
		live.Spec.Rules = desired.Spec.Rules
		changed = true
	}

	if !equality.Semantic.DeepEqual(live.Spec.TLS, desired.Spec.TLS) {
		live.Spec.TLS = desired.Spec.TLS
		changed = true
	}

	return changed
}
