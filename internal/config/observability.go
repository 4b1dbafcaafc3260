package config

import "fmt"

// ObservabilityConfig identifies the service to the APM agent. ServiceName
// and Environment are filled from the primary config during Load; only the
// license key comes from the environment. An empty license key disables the
// agent.
type ObservabilityConfig struct {
	ServiceName string `koanf:"-"`
	Environment string `koanf:"-"`
	LicenseKey  string `koanf:"licensekey"`
}

// DefaultObservabilityConfig returns the disabled-agent default.
func DefaultObservabilityConfig() *ObservabilityConfig {
	return &ObservabilityConfig{}
}

// Enabled reports whether the APM agent should start.
func (o *ObservabilityConfig) Enabled() bool {
	return o != nil && o.LicenseKey != ""
}

func (o *ObservabilityConfig) Validate() error {
	if o.ServiceName == "" {
		return fmt.Errorf("observability: service name is required")
	}
	if o.Environment == "" {
		return fmt.Errorf("observability: environment is required")
	}
	return nil
}
