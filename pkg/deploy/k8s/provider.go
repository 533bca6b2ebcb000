package k8s

import (
	"context"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Provider scales Kubernetes Deployments. Worker fleets and the gateway
// tier are plain Deployments in a single namespace; scaling is a replica
// update, nothing more.
type Provider struct {
	client    kubernetes.Interface
	namespace string
}

// NewProvider creates a Kubernetes provider using in-cluster credentials,
// falling back to the local kubeconfig outside the cluster.
func NewProvider(namespace string) (*Provider, error) {
	cfg, err := rest.InClusterConfig()
	if err != nil {
		loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
		kubeConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, &clientcmd.ConfigOverrides{})
		cfg, err = kubeConfig.ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to get kubernetes config: %v", err)
		}
	}

	client, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %v", err)
	}

	if namespace == "" {
		namespace = "default"
	}

	return &Provider{client: client, namespace: namespace}, nil
}

// NewProviderWithClient creates a provider with an injected clientset, for tests
func NewProviderWithClient(client kubernetes.Interface, namespace string) *Provider {
	return &Provider{client: client, namespace: namespace}
}

// Scale sets the replica count of the named Deployment
func (p *Provider) Scale(ctx context.Context, deployment string, replicas int) error {
	if replicas < 0 {
		return fmt.Errorf("replicas cannot be negative")
	}

	deployments := p.client.AppsV1().Deployments(p.namespace)
	dep, err := deployments.Get(ctx, deployment, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("failed to get deployment %s: %v", deployment, err)
	}

	r := int32(replicas)
	dep.Spec.Replicas = &r

	if _, err := deployments.Update(ctx, dep, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed to scale deployment %s: %v", deployment, err)
	}
	return nil
}
