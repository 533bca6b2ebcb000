package deploy

import (
	"fmt"

	"pixelgate/pkg/config"
	"pixelgate/pkg/deploy/k8s"
)

// NewProvider creates the deployment provider named by configuration
func NewProvider(cfg config.DeployConfig) (Provider, error) {
	switch cfg.Provider {
	case "", "log":
		return NewLogProvider(), nil
	case "k8s":
		return k8s.NewProvider(cfg.Namespace)
	default:
		return nil, fmt.Errorf("unknown deploy provider %q", cfg.Provider)
	}
}
