package source

import (
	"github.com/rs/zerolog"

	"github.com/robby/cwp/internal/auth"
	"github.com/robby/cwp/internal/logging"
)

// OpenOptions selects an item source. At most one of Items and URL is set.
type OpenOptions struct {
	Items    string // TOML roster path
	URL      string // GraphQL endpoint
	TokenEnv string // variable holding the endpoint's bearer token
	// TokenCommand, when set, is run for a token if TokenEnv is empty.
	TokenCommand []string
	Catalog      *Catalog
}

// Open returns the configured source: a roster file, a GraphQL endpoint or,
// when neither is set, an empty in-memory source.
func Open(o OpenOptions, log zerolog.Logger) Source {
	catalog := o.Catalog
	if catalog == nil {
		catalog = NewCatalog()
	}

	switch {
	case o.Items != "":
		return NewFileSource(o.Items, catalog, logging.Component(log, "roster"))
	case o.URL != "":
		return NewGraphQLSource(o.URL, tokenProvider(o, log), catalog, logging.Component(log, "graphql"))
	default:
		log.Warn().Msg("no item source configured, set items or source.url")
		return NewMemory(log)
	}
}

// tokenProvider returns nil when no token can be had, so requests go out
// without an Authorization header.
func tokenProvider(o OpenOptions, log zerolog.Logger) auth.TokenProvider {
	env := &auth.EnvProvider{Var: o.TokenEnv}
	if len(o.TokenCommand) > 0 {
		return auth.Chain{env, &auth.CommandProvider{Name: o.TokenCommand[0], Args: o.TokenCommand[1:]}}
	}
	if _, err := env.GetToken(); err != nil {
		log.Debug().Err(err).Msg("no source token, sending unauthenticated requests")
		return nil
	}
	return env
}
