package controller

import (
	"context"

	"github.com/cockroachdb/errors"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/util/retry"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/log"

	webv1 "github.com/rootster/staticsite-operator/api/v1"
	"github.com/rootster/staticsite-operator/internal/build"
)

// Finalizer blocks StaticSite deletion until child cleanup has run.
const Finalizer = "web.rootster.xyz/finalizer"

// handleDeletion runs the cleanup path for a StaticSite whose deletion
// timestamp is set. Without our finalizer there is nothing left to do;
// with it, children are deleted first and the finalizer removed last,
// which is what actually lets the API server finish the delete.
func (r *StaticSiteReconciler) handleDeletion(ctx context.Context, site *webv1.StaticSite) (ctrl.Result, error) {
	logger := log.FromContext(ctx)

	if !controllerutil.ContainsFinalizer(site, Finalizer) {
		return ctrl.Result{}, nil
	}

	logger.Info("cleaning up child objects before deletion")

	if err := r.cleanupChildren(ctx, site); err != nil {
		return ctrl.Result{}, errors.Wrap(err, "failed to clean up child objects")
	}

	if r.Recorder != nil {
		r.Recorder.Eventf(site, corev1.EventTypeNormal, "Cleanup",
			"deleted child objects for %s/%s", site.Namespace, site.Name)
	}

	if err := r.removeFinalizer(ctx, site); err != nil {
		return ctrl.Result{}, errors.Wrap(err, "failed to remove finalizer")
	}

	return ctrl.Result{}, nil
}

// cleanupChildren deletes every child object the reconciler may have
// created. Owner references make most of this redundant via cascade
// deletion, but running it explicitly keeps cleanup deterministic and
// safe to repeat: absent objects count as success.
func (r *StaticSiteReconciler) cleanupChildren(ctx context.Context, site *webv1.StaticSite) error {
	targets := []client.Object{
		&networkingv1.Ingress{ObjectMeta: metav1.ObjectMeta{
			Name: build.IngressName(site.Name), Namespace: site.Namespace,
		}},
		&corev1.Service{ObjectMeta: metav1.ObjectMeta{
			Name: build.ServiceName(site.Name), Namespace: site.Namespace,
		}},
		&appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{
			Name: build.DeploymentName(site.Name), Namespace: site.Namespace,
		}},
		&corev1.ConfigMap{ObjectMeta: metav1.ObjectMeta{
			Name: build.ConfigMapName(site.Name), Namespace: site.Namespace,
		}},
	}

	var cleanupErr error

	for _, obj := range targets {
		err := r.Delete(ctx, obj)
		if err != nil && !apierrors.IsNotFound(err) {
			cleanupErr = errors.CombineErrors(cleanupErr,
				errors.Wrapf(err, "failed to delete %s", obj.GetName()))
		}
	}

	return cleanupErr
}

// removeFinalizer drops our token with a bounded conflict-retry: the
// finalizer list is mutated under optimistic concurrency, so a stale
// read means re-fetch and try again, not failure.
func (r *StaticSiteReconciler) removeFinalizer(ctx context.Context, site *webv1.StaticSite) error {
	//nolint:wrapcheck // wrapped by the caller
	return retry.RetryOnConflict(retry.DefaultRetry, func() error {
		var fresh webv1.StaticSite
		if err := r.Get(ctx, client.ObjectKeyFromObject(site), &fresh); err != nil {
			if apierrors.IsNotFound(err) {
				return nil
			}

			return err
		}

		if !controllerutil.ContainsFinalizer(&fresh, Finalizer) {
			return nil
		}

		controllerutil.RemoveFinalizer(&fresh, Finalizer)

		return r.Update(ctx, &fresh)
	})
}
