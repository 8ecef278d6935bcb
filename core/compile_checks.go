package core

import (
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-service-adapters/did"
)

var (
	_ AdapterLookup         = (*AdapterRegistry)(nil)
	_ DIDVerifier           = (*did.Verifier)(nil)
	_ MetricsRecorder       = NopMetricsRecorder{}
	_ ServiceErrorConverter = (*InstanceNotFoundError)(nil)
	_ ServiceErrorConverter = (*ServiceResolutionError)(nil)
	_ ServiceErrorConverter = (*ConfigDecryptionError)(nil)
	_ ServiceErrorConverter = (*ConfigValidationError)(nil)
	_ ServiceErrorConverter = (*ResolutionStageError)(nil)
	_ ServiceErrorConverter = (*did.MethodNotSupportedError)(nil)
	_ ServiceErrorConverter = (*did.ParseError)(nil)
	_ ServiceErrorConverter = (*did.InputError)(nil)

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
