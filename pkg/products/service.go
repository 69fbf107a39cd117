package products

import (
	"context"
)

// Service exposes product queries to the serving layer. During an import run
// reads see possibly in-flux data; there is no transaction around the whole
// run, so consumers observe an eventual-consistency window between "fund
// updated" and "all products updated".
type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Search returns open products for a market segment. State may be any of the
// eight state codes; products registered for ALL states always match.
func (s *Service) Search(ctx context.Context, state string, adults int, children bool) ([]Product, error) {
	return s.repo.Search(ctx, state, adults, children)
}

func (s *Service) FindOne(ctx context.Context, code string) (*Product, error) {
	product, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNotFound
	}
	return product, nil
}

func (s *Service) FindByFund(ctx context.Context, fundCode string) ([]Product, error) {
	return s.repo.FindByFund(ctx, fundCode)
}

// ServiceList returns the full health-service mnemonic mapping table.
func (s *Service) ServiceList(ctx context.Context) ([]HealthService, error) {
	return s.repo.HealthServiceList(ctx)
}
