package postgres

import (
	"context"

	"github.com/abyuwono/bagasi/internal/domain/listing"
	chatuc "github.com/abyuwono/bagasi/internal/usecase/chat"
	reviewuc "github.com/abyuwono/bagasi/internal/usecase/review"
	suggestuc "github.com/abyuwono/bagasi/internal/usecase/suggest"
)

type PartiesAdapter struct {
	repo *ListingRepo
}

func NewPartiesAdapter(repo *ListingRepo) *PartiesAdapter {
	return &PartiesAdapter{repo: repo}
}

func (a *PartiesAdapter) Parties(ctx context.Context, adID string) (*listing.Parties, error) {
	row, err := a.repo.Parties(ctx, adID)
	if err != nil {
		if isNoRows(err) {
			return nil, listing.ErrNotFound
		}
		return nil, err
	}
	out := &listing.Parties{
		Kind:    listing.Kind(row.Kind),
		Status:  listing.Status(row.Status),
		OwnerID: row.OwnerID,
	}
	if row.Counterparty != nil {
		out.Counterparty = *row.Counterparty
	}
	return out, nil
}

type CityStoreAdapter struct {
	repo *ListingRepo
}

func NewCityStoreAdapter(repo *ListingRepo) *CityStoreAdapter {
	return &CityStoreAdapter{repo: repo}
}

func (a *CityStoreAdapter) Cities(ctx context.Context, prefix string, limit int) ([]suggestuc.Suggestion, error) {
	rows, err := a.repo.Cities(ctx, prefix, limit)
	if err != nil {
		return nil, err
	}
	out := make([]suggestuc.Suggestion, 0, len(rows))
	for _, r := range rows {
		out = append(out, suggestuc.Suggestion{City: r.City, Count: r.Count})
	}
	return out, nil
}

// Compile-time checks
var (
	_ chatuc.PartiesLookup   = (*PartiesAdapter)(nil)
	_ reviewuc.PartiesLookup = (*PartiesAdapter)(nil)
	_ suggestuc.Store        = (*CityStoreAdapter)(nil)
)
