package source

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/machinebox/graphql"
	"github.com/rs/zerolog"

	"github.com/robby/cwp/internal/auth"
	"github.com/robby/cwp/internal/domain"
)

const contractsQuery = `
	query {
		contracts {
			id
			title
			type
			planet
			difficulty
			reward
			accepted
			deadline
			state
			note
			threshold
			parameters
		}
	}
`

// GraphQLSource serves contracts fetched from a GraphQL endpoint. Each
// Refresh replaces the item set with the endpoint's current answer.
type GraphQLSource struct {
	*Memory

	gql     *graphql.Client
	tokens  auth.TokenProvider
	catalog *Catalog
	log     zerolog.Logger
}

var _ Refresher = (*GraphQLSource)(nil)

type contractNode struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Type       string   `json:"type"`
	Planet     string   `json:"planet"`
	Difficulty int      `json:"difficulty"`
	Reward     float64  `json:"reward"`
	Accepted   string   `json:"accepted"`
	Deadline   string   `json:"deadline"`
	State      string   `json:"state"`
	Note       string   `json:"note"`
	Threshold  float64  `json:"threshold"`
	Parameters []string `json:"parameters"`
}

// NewGraphQLSource creates a source for the endpoint at url. tokens may be
// nil for endpoints that need no authorization.
func NewGraphQLSource(url string, tokens auth.TokenProvider, catalog *Catalog, log zerolog.Logger) *GraphQLSource {
	if catalog == nil {
		catalog = NewCatalog()
	}
	return &GraphQLSource{
		Memory:  NewMemory(log),
		gql:     graphql.NewClient(url),
		tokens:  tokens,
		catalog: catalog,
		log:     log,
	}
}

// makeRequest executes a GraphQL request with authentication.
func (g *GraphQLSource) makeRequest(ctx context.Context, req *graphql.Request, resp interface{}) error {
	if g.tokens != nil {
		token, err := g.tokens.GetToken()
		if err != nil {
			return fmt.Errorf("failed to obtain source token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return g.gql.Run(ctx, req, resp)
}

// Fetch queries the endpoint and returns the normalized contracts. Invalid
// contracts are logged and skipped.
func (g *GraphQLSource) Fetch(ctx context.Context) ([]domain.Item, error) {
	req := graphql.NewRequest(contractsQuery)

	var resp struct {
		Contracts []contractNode `json:"contracts"`
	}
	if err := g.makeRequest(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch contracts: %w", err)
	}

	items := make([]domain.Item, 0, len(resp.Contracts))
	for _, node := range resp.Contracts {
		item, err := node.toItem(g.catalog)
		if err != nil {
			g.log.Warn().Err(err).Str("id", node.ID).Msg("skipping invalid contract")
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Refresh fetches the contracts and replaces the item set.
func (g *GraphQLSource) Refresh(ctx context.Context) error {
	items, err := g.Fetch(ctx)
	if err != nil {
		return err
	}
	g.Replace(items)
	return nil
}

func (n contractNode) toItem(catalog *Catalog) (domain.Item, error) {
	id, err := uuid.Parse(n.ID)
	if err != nil {
		return domain.Item{}, fmt.Errorf("invalid id: %w", err)
	}

	state, err := domain.ParseState(n.State)
	if err != nil {
		return domain.Item{}, err
	}

	accepted, err := parseTime(n.Accepted)
	if err != nil {
		return domain.Item{}, fmt.Errorf("invalid accepted time: %w", err)
	}
	deadline, err := parseTime(n.Deadline)
	if err != nil {
		return domain.Item{}, fmt.Errorf("invalid deadline: %w", err)
	}

	return domain.Item{
		ID:         id,
		Title:      n.Title,
		Type:       n.Type,
		Planet:     n.Planet,
		Difficulty: n.Difficulty,
		Reward:     n.Reward,
		Accepted:   accepted,
		Deadline:   deadline,
		State:      state,
		Note:       n.Note,
		Category:   catalog.Classify(n.Type, n.Parameters),
		Threshold:  n.Threshold,
	}, nil
}

// parseTime accepts RFC 3339 timestamps. Empty strings are the zero time.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
