package carrick

import (
	"go.uber.org/zap"

	"github.com/viant/carrick/framework"
	"github.com/viant/carrick/match"
	"github.com/viant/carrick/model"
	"github.com/viant/carrick/resolver"
)

// Option configures an Engine, mirroring the injected-collaborator
// functional-options pattern used throughout this codebase's ancestry.
type Option func(*Engine)

// WithModuleResolver injects the Cross-file Import Resolver's module
// lookup (spec §4.5, §6). Without one, every cross-file mount stays
// unresolved with reason unbound-symbol (model.ReasonUnboundSymbol).
func WithModuleResolver(resolve resolver.ModuleResolver) Option {
	return func(e *Engine) {
		e.moduleResolver = resolve
	}
}

// WithEnvMap supplies the environment-variable-to-repository mapping
// (spec §4.7 step 1, §6) used to disambiguate env-var-prefixed call
// URLs. Omitted entries fall back to wildcard matching on path alone.
func WithEnvMap(envMap map[string]model.RepoID) Option {
	return func(e *Engine) {
		e.envMap = envMap
	}
}

// WithSignatures overrides the framework-recognition signature table
// (spec §4.3). Without one, framework.DefaultSignatures() is used.
func WithSignatures(signatures []framework.Signature) Option {
	return func(e *Engine) {
		e.signatures = signatures
	}
}

// WithTypeOracle injects the external AI type-comparison service
// (spec §4.7 step 4, §6). Without one, matched calls skip type
// verification entirely.
func WithTypeOracle(oracle match.TypeOracle) Option {
	return func(e *Engine) {
		e.oracle = oracle
	}
}

// WithLogger overrides the Engine's structured logger. Without one,
// a no-op logger is used.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}
