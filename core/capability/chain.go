package capability

import (
	"github.com/artpar/mira/core/markers"
	"github.com/artpar/mira/core/registry"
	"github.com/rs/zerolog"
)

// Registrar claims registration requests.
type Registrar interface {
	// Name identifies the registrar in logs and metrics.
	Name() string

	// TryRegister registers req for the module described by meta and
	// reports whether the request was claimed.
	TryRegister(req markers.Request, meta *registry.ModuleMetadata) bool
}

// ModuleCompleter is implemented by registrars that need to act once a
// module's requests have all been routed.
type ModuleCompleter interface {
	CompleteModule(meta *registry.ModuleMetadata)
}

// Chain routes each request to the first registrar that claims it.
type Chain struct {
	registrars []Registrar
	logger     zerolog.Logger
}

// NewChain creates a chain. Registrars are tried in the given order.
func NewChain(logger zerolog.Logger, registrars ...Registrar) *Chain {
	return &Chain{
		registrars: registrars,
		logger:     logger,
	}
}

// Route offers req to each registrar in order. It returns the name of the
// registrar that claimed it, or false when none did.
func (c *Chain) Route(req markers.Request, meta *registry.ModuleMetadata) (string, bool) {
	for _, r := range c.registrars {
		if r.TryRegister(req, meta) {
			return r.Name(), true
		}
	}

	c.logger.Debug().
		Str("module", meta.GUID).
		Str("entity", req.Entity.Name).
		Str("kind", req.Kind.String()).
		Msg("no registrar claimed request, skipping")
	return "", false
}

// CompleteModule notifies every ModuleCompleter, in chain order, that meta's
// requests have been routed.
func (c *Chain) CompleteModule(meta *registry.ModuleMetadata) {
	for _, r := range c.registrars {
		if mc, ok := r.(ModuleCompleter); ok {
			mc.CompleteModule(meta)
		}
	}
}

// Names returns the registrar names in routing order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.registrars))
	for i, r := range c.registrars {
		names[i] = r.Name()
	}
	return names
}
