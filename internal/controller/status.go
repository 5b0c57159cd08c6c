package controller

import (
	"fmt"

	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	webv1 "github.com/rootster/staticsite-operator/api/v1"
)

// Ready condition vocabulary. A StaticSite carries exactly one
// condition of type Ready; transition time moves only when the status
// value flips, not on reason or message changes.
const (
	// ConditionTypeReady indicates the site is fully served.
	ConditionTypeReady = "Ready"

	// ReasonPodsAvailable means all children match and replicas are up.
	ReasonPodsAvailable = "PodsAvailable"

	// ReasonProgressing means children are being created or pods are
	// still catching up to the desired replica count.
	ReasonProgressing = "Progressing"

	// ReasonError means the last reconcile attempt itself failed.
	ReasonError = "Error"

	// ReasonReconciling is used before the first successful observation.
	ReasonReconciling = "Reconciling"
)

// observation is what one reconcile pass learned about the live state.
type observation struct {
	// readyReplicas is the live Deployment's ready count; zero when the
	// workload is absent or not yet observed.
	readyReplicas int32

	// childrenSynced is true when every child object exists and matches
	// the builder output after this pass.
	childrenSynced bool

	// observed is false only when the pass failed before reaching the
	// workload at all.
	observed bool

	// err is the aggregated pass error, nil on success.
	err error
}

// projectStatus maps the desired spec and one pass's observation to the
// status the CR should carry. Pure; the caller decides whether the
// result differs from the stored status and is worth a write.
func projectStatus(site *webv1.StaticSite, obs observation) webv1.StaticSiteStatus {
	status := *site.Status.DeepCopy()
	status.ReadyReplicas = obs.readyReplicas

	if obs.err == nil && obs.observed {
		// observedMessage mirrors the last successfully reconciled spec.
		status.ObservedMessage = site.Spec.Message
	}

	meta.SetStatusCondition(&status.Conditions, readyCondition(site, obs))

	return status
}

func readyCondition(site *webv1.StaticSite, obs observation) metav1.Condition {
	cond := metav1.Condition{
		Type:               ConditionTypeReady,
		ObservedGeneration: site.Generation,
	}

	switch {
	case obs.err != nil:
		cond.Status = metav1.ConditionFalse
		cond.Reason = ReasonError
		cond.Message = obs.err.Error()
	case !obs.observed:
		cond.Status = metav1.ConditionUnknown
		cond.Reason = ReasonReconciling
		cond.Message = "workload not yet observed"
	case obs.childrenSynced && obs.readyReplicas == site.Spec.GetReplicas():
		cond.Status = metav1.ConditionTrue
		cond.Reason = ReasonPodsAvailable
		cond.Message = fmt.Sprintf("%d/%d replicas ready", obs.readyReplicas, site.Spec.GetReplicas())
	default:
		cond.Status = metav1.ConditionFalse
		cond.Reason = ReasonProgressing
		cond.Message = fmt.Sprintf("%d/%d replicas ready", obs.readyReplicas, site.Spec.GetReplicas())
	}

	return cond
}
