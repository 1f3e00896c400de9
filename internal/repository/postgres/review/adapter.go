package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	reviewuc "github.com/abyuwono/bagasi/internal/usecase/review"
)

type ReviewStoreAdapter struct {
	repo *ReviewRepo
}

func NewReviewStoreAdapter(repo *ReviewRepo) *ReviewStoreAdapter {
	return &ReviewStoreAdapter{repo: repo}
}

func (a *ReviewStoreAdapter) ListByAd(ctx context.Context, adID string) ([]reviewuc.Review, error) {
	rows, err := a.repo.ListByAd(ctx, adID)
	if err != nil {
		return nil, err
	}
	return mapReviews(rows), nil
}

func (a *ReviewStoreAdapter) Create(ctx context.Context, adID, authorID string, in reviewuc.CreateInput) (*reviewuc.Review, error) {
	id, err := a.repo.Create(ctx, adID, authorID, in.Rating, in.Comment)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, reviewuc.ErrAlreadyReviewed
		}
		return nil, err
	}
	return a.GetByID(ctx, id)
}

func (a *ReviewStoreAdapter) GetByID(ctx context.Context, id string) (*reviewuc.Review, error) {
	row, err := a.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, reviewuc.ErrNotFound
		}
		return nil, err
	}
	r := mapReview(row)
	return &r, nil
}

func (a *ReviewStoreAdapter) SetStatus(ctx context.Context, id string, st reviewuc.Status, reporterID, reason *string) (*reviewuc.Review, error) {
	if err := a.repo.SetStatus(ctx, id, string(st), reporterID, reason); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, reviewuc.ErrNotFound
		}
		return nil, err
	}
	return a.GetByID(ctx, id)
}

func (a *ReviewStoreAdapter) ListReported(ctx context.Context) ([]reviewuc.Review, error) {
	rows, err := a.repo.ListByStatus(ctx, string(reviewuc.StatusReported))
	if err != nil {
		return nil, err
	}
	return mapReviews(rows), nil
}

func mapReviews(rows []ReviewRow) []reviewuc.Review {
	out := make([]reviewuc.Review, 0, len(rows))
	for i := range rows {
		out = append(out, mapReview(&rows[i]))
	}
	return out
}

func mapReview(r *ReviewRow) reviewuc.Review {
	return reviewuc.Review{
		ID:           r.ID,
		AdID:         r.AdID,
		AuthorID:     r.AuthorID,
		AuthorName:   r.AuthorName,
		Rating:       r.Rating,
		Comment:      r.Comment,
		Status:       reviewuc.Status(r.Status),
		ReportReason: r.ReportReason,
		CreatedAt:    r.CreatedAt,
	}
}

// Compile-time check
var _ reviewuc.Store = (*ReviewStoreAdapter)(nil)
