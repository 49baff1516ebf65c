package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/law23sum/trader-exchange/internal/listings"
	"github.com/law23sum/trader-exchange/internal/providers"
	pkgerrors "github.com/law23sum/trader-exchange/pkg/errors"
)

// SearchResult groups matches by kind.
type SearchResult struct {
	Providers []providers.ProviderDTO `json:"providers"`
	Listings  []listings.ListingDTO   `json:"listings"`
}

type Service interface {
	Categories(ctx context.Context) ([]string, error)
	Search(ctx context.Context, query string) (*SearchResult, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// Categories returns the distinct tags of listed listings, sorted. Case is preserved.
func (s *service) Categories(ctx context.Context) ([]string, error) {
	raw, err := s.repo.ListedTags(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tags")
	}
	seen := map[string]struct{}{}
	out := []string{}
	for _, tags := range raw {
		for _, tag := range strings.Split(tags, ",") {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *service) Search(ctx context.Context, query string) (*SearchResult, error) {
	providerRows, err := s.repo.SearchProviders(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search providers")
	}
	listingRows, err := s.repo.SearchListings(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search listings")
	}

	result := &SearchResult{
		Providers: make([]providers.ProviderDTO, 0, len(providerRows)),
		Listings:  make([]listings.ListingDTO, 0, len(listingRows)),
	}
	for i := range providerRows {
		result.Providers = append(result.Providers, providers.FromModel(&providerRows[i]))
	}
	for i := range listingRows {
		result.Listings = append(result.Listings, listings.FromModel(&listingRows[i]))
	}
	return result, nil
}
