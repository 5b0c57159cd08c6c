package controller

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"

	webv1 "github.com/rootster/staticsite-operator/api/v1"
	"github.com/rootster/staticsite-operator/internal/build"
)

func TestReconcile_DeletionCleansUpChildren(t *testing.T) {
	t.Parallel()

	site := reconcilerSite(func(s *webv1.StaticSite) {
		s.Spec.IngressHost = "example.local"
	})
	r, c := newTestReconciler(t, nil, site)
	ctx := context.Background()

	_, err := reconcileOnce(t, r)
	require.NoError(t, err)

	// Deleting the CR only sets the deletion timestamp while our
	// finalizer is present.
	require.NoError(t, c.Delete(ctx, getSite(t, c)))

	result, err := reconcileOnce(t, r)
	require.NoError(t, err)
	assert.Equal(t, ctrl.Result{}, result)

	// Finalizer removed, so the CR is actually gone now.
	var gone webv1.StaticSite
	assert.True(t, apierrors.IsNotFound(c.Get(ctx,
		types.NamespacedName{Name: testSiteName, Namespace: testNamespace}, &gone)))

	var configMap corev1.ConfigMap
	assert.True(t, apierrors.IsNotFound(c.Get(ctx,
		types.NamespacedName{Name: build.ConfigMapName(testSiteName), Namespace: testNamespace}, &configMap)))

	var deployment appsv1.Deployment
	assert.True(t, apierrors.IsNotFound(c.Get(ctx,
		types.NamespacedName{Name: build.DeploymentName(testSiteName), Namespace: testNamespace}, &deployment)))

	var service corev1.Service
	assert.True(t, apierrors.IsNotFound(c.Get(ctx,
		types.NamespacedName{Name: build.ServiceName(testSiteName), Namespace: testNamespace}, &service)))

	var ingress networkingv1.Ingress
	assert.True(t, apierrors.IsNotFound(c.Get(ctx,
		types.NamespacedName{Name: build.IngressName(testSiteName), Namespace: testNamespace}, &ingress)))
}

func TestHandleDeletion_NoFinalizerIsNoOp(t *testing.T) {
	t.Parallel()

	r, _ := newTestReconciler(t, nil)

	now := metav1.Now()
	site := reconcilerSite(func(s *webv1.StaticSite) {
		s.Finalizers = nil
		s.DeletionTimestamp = &now
	})

	result, err := r.handleDeletion(context.Background(), site)

	require.NoError(t, err)
	assert.Equal(t, ctrl.Result{}, result)
}

func TestCleanupChildren_AbsentChildrenOK(t *testing.T) {
	t.Parallel()

	// Nothing was ever created; cleanup must still succeed so deletion
	// can finish.
	r, _ := newTestReconciler(t, nil)

	err := r.cleanupChildren(context.Background(), reconcilerSite(nil))

	require.NoError(t, err)
}

func TestRemoveFinalizer_SiteAlreadyGone(t *testing.T) {
	t.Parallel()

	r, _ := newTestReconciler(t, nil)

	err := r.removeFinalizer(context.Background(), reconcilerSite(nil))

	require.NoError(t, err)
}
