// Package observability starts the optional New Relic agent.
package observability

import (
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/shopstack/itemstore/internal/config"
)

// NewApp builds the New Relic application when a license key is configured.
// Returns nil, nil when the agent is disabled.
func NewApp(cfg *config.ObservabilityConfig) (*newrelic.Application, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	return newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.ServiceName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		func(c *newrelic.Config) {
			c.Labels = map[string]string{"environment": cfg.Environment}
		},
	)
}
