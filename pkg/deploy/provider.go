// Package deploy abstracts the deployment substrate that scaling decisions
// are actuated against. The gateway only ever asks it to set a replica
// count; everything else about the fleet is out of its hands.
package deploy

import "context"

// Provider actuates replica counts for named deployments
type Provider interface {
	// Scale sets the desired replica count for a deployment. Failures are
	// transient from the control loop's perspective: the caller logs and
	// retries the target level on a later tick.
	Scale(ctx context.Context, deployment string, replicas int) error
}
