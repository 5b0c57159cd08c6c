package controller

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/api/equality"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/builder"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/predicate"

	webv1 "github.com/rootster/staticsite-operator/api/v1"
	"github.com/rootster/staticsite-operator/internal/metrics"
)

const (
	// reconcileTimeout bounds the worst-case blocking of a single pass.
	// A pass that overruns is abandoned and retried with backoff.
	reconcileTimeout = time.Minute

	// progressRequeueDelay is how soon a converging-but-not-ready site
	// is polled again.
	progressRequeueDelay = 5 * time.Second
)

// Reconcile outcome labels for metrics.
const (
	outcomeReady       = "ready"
	outcomeProgressing = "progressing"
	outcomeError       = "error"
	outcomeDeleted     = "deleted"
)

// StaticSiteReconciler drives the cluster toward the state each
// StaticSite describes: a content ConfigMap, an nginx Deployment, a
// Service, and optionally an Ingress, all owned by the CR.
type StaticSiteReconciler struct {
	client.Client

	Scheme *runtime.Scheme

	// Image is the operand image for the web server container.
	Image string

	// MaxConcurrent bounds the reconcile worker pool. Different sites
	// reconcile in parallel; the workqueue guarantees a single in-flight
	// pass per site.
	MaxConcurrent int

	Metrics  metrics.Collector
	Recorder record.EventRecorder
}

// Reconcile runs one level-triggered pass for a StaticSite key. It
// re-reads current state rather than trusting the triggering event,
// corrects drift on the owned children in a fixed order, projects
// status, and decides the requeue outcome.
//
//nolint:noinlineerr // controller reconcile logic
func (r *StaticSiteReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, reconcileTimeout)
	defer cancel()

	var site webv1.StaticSite

	if err := r.Get(ctx, req.NamespacedName, &site); err != nil {
		if apierrors.IsNotFound(err) {
			// Already fully deleted; nothing to do.
			return ctrl.Result{}, nil
		}

		r.recordError(ctx, err)

		return ctrl.Result{}, errors.Wrap(err, "failed to get StaticSite")
	}

	if !site.DeletionTimestamp.IsZero() {
		result, err := r.handleDeletion(ctx, &site)
		r.recordPass(ctx, outcomeDeleted, start, err)

		return result, err
	}

	if !controllerutil.ContainsFinalizer(&site, Finalizer) {
		controllerutil.AddFinalizer(&site, Finalizer)

		if err := r.Update(ctx, &site); err != nil {
			if apierrors.IsConflict(err) {
				// Stale read; requeue to act on a fresh object.
				return ctrl.Result{Requeue: true}, nil
			}

			r.recordError(ctx, err)

			return ctrl.Result{}, errors.Wrap(err, "failed to add finalizer")
		}

		// Requeue rather than continuing on the now-stale object.
		return ctrl.Result{Requeue: true}, nil
	}

	logger.Info("reconciling site", "name", site.Name, "namespace", site.Namespace)

	obs := r.ensureChildren(ctx, &site)

	if statusErr := r.patchStatus(ctx, &site, obs); statusErr != nil {
		obs.err = errors.CombineErrors(obs.err, statusErr)
	}

	switch {
	case obs.err != nil:
		r.recordPass(ctx, outcomeError, start, obs.err)

		// The workqueue retries with capped exponential backoff.
		return ctrl.Result{}, obs.err
	case obs.readyReplicas != site.Spec.GetReplicas():
		r.recordPass(ctx, outcomeProgressing, start, nil)

		return ctrl.Result{RequeueAfter: progressRequeueDelay}, nil
	default:
		r.recordPass(ctx, outcomeReady, start, nil)

		return ctrl.Result{}, nil
	}
}

// patchStatus writes the projected status through the status
// subresource, skipping the write entirely when nothing changed so a
// converged site produces no spurious resync events.
func (r *StaticSiteReconciler) patchStatus(ctx context.Context, site *webv1.StaticSite, obs observation) error {
	newStatus := projectStatus(site, obs)

	if equality.Semantic.DeepEqual(site.Status, newStatus) {
		if r.Metrics != nil {
			r.Metrics.RecordStatusWrite(ctx, "skipped")
		}

		return nil
	}

	base := site.DeepCopy()
	site.Status = newStatus

	if err := r.Status().Patch(ctx, site, client.MergeFrom(base)); err != nil {
		if r.Metrics != nil {
			r.Metrics.RecordStatusWrite(ctx, "error")
		}

		return errors.Wrap(err, "failed to patch status")
	}

	if r.Metrics != nil {
		r.Metrics.RecordStatusWrite(ctx, "written")
	}

	return nil
}

//nolint:funcorder // metric helpers
func (r *StaticSiteReconciler) recordPass(ctx context.Context, outcome string, start time.Time, err error) {
	if r.Metrics == nil {
		return
	}

	r.Metrics.RecordReconcileDuration(ctx, outcome, time.Since(start))

	if err != nil {
		r.Metrics.RecordReconcileError(ctx, metrics.ClassifyAPIError(err))
	}
}

//nolint:funcorder // metric helpers
func (r *StaticSiteReconciler) recordError(ctx context.Context, err error) {
	if r.Metrics != nil {
		r.Metrics.RecordReconcileError(ctx, metrics.ClassifyAPIError(err))
	}
}

// SetupWithManager sets up the controller with the Manager. Spec-only
// changes on the CR are filtered by generation; the owned children are
// watched unfiltered so workload status movement re-triggers passes.
func (r *StaticSiteReconciler) SetupWithManager(mgr ctrl.Manager) error {
	maxConcurrent := r.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	//nolint:wrapcheck // controller-runtime builder pattern
	return ctrl.NewControllerManagedBy(mgr).
		For(&webv1.StaticSite{}, builder.WithPredicates(predicate.GenerationChangedPredicate{})).
		Owns(&corev1.ConfigMap{}).
		Owns(&appsv1.Deployment{}).
		Owns(&corev1.Service{}).
		Owns(&networkingv1.Ingress{}).
		WithOptions(controller.Options{MaxConcurrentReconciles: maxConcurrent}).
		Complete(r)
}
