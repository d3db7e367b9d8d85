package commands

// ObservabilityConfig exposes observabilityConfig to the external test package.
var ObservabilityConfig = observabilityConfig
