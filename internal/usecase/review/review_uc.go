package review

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/abyuwono/bagasi/internal/domain/listing"
	"github.com/abyuwono/bagasi/internal/validation"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("review not found")
	ErrAlreadyReviewed = errors.New("ad already reviewed by this user")
	ErrNotSettled      = errors.New("ad is not completed yet")
)

type Status string

const (
	StatusVisible  Status = "visible"
	StatusReported Status = "reported"
	StatusRemoved  Status = "removed"
)

type Review struct {
	ID           string    `json:"id"`
	AdID         string    `json:"adId"`
	AuthorID     string    `json:"authorId"`
	AuthorName   string    `json:"authorName"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	Status       Status    `json:"status"`
	ReportReason *string   `json:"reportReason,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type CreateInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

type ReportInput struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type HandleInput struct {
	Action string `json:"action" validate:"required,oneof=keep remove"`
}

type Store interface {
	ListByAd(ctx context.Context, adID string) ([]Review, error)
	Create(ctx context.Context, adID, authorID string, in CreateInput) (*Review, error)
	GetByID(ctx context.Context, id string) (*Review, error)
	SetStatus(ctx context.Context, id string, st Status, reporterID, reason *string) (*Review, error)
	ListReported(ctx context.Context) ([]Review, error)
}

type PartiesLookup interface {
	Parties(ctx context.Context, adID string) (*listing.Parties, error)
}

type Usecase struct {
	store   Store
	parties PartiesLookup
}

func New(store Store, parties PartiesLookup) *Usecase {
	return &Usecase{store: store, parties: parties}
}

// List hides removed reviews.
func (u *Usecase) List(ctx context.Context, adID string) ([]Review, error) {
	all, err := u.store.ListByAd(ctx, adID)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, r := range all {
		if r.Status != StatusRemoved {
			out = append(out, r)
		}
	}
	return out, nil
}

// Create accepts one review per party once the ad is booked (travel) or completed (shopper).
func (u *Usecase) Create(ctx context.Context, adID, authorID string, in CreateInput) (*Review, error) {
	in.Comment = strings.TrimSpace(in.Comment)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	p, err := u.parties.Parties(ctx, adID)
	if err != nil {
		return nil, err
	}
	if !p.Includes(authorID) {
		return nil, listing.ErrForbidden
	}
	if !p.Settled() {
		return nil, ErrNotSettled
	}
	return u.store.Create(ctx, adID, authorID, in)
}

func (u *Usecase) Report(ctx context.Context, id, reporterID string, in ReportInput) (*Review, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	r, err := u.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.AuthorID == reporterID {
		return nil, listing.ErrForbidden
	}
	if r.Status == StatusRemoved {
		return nil, ErrNotFound
	}
	return u.store.SetStatus(ctx, id, StatusReported, &reporterID, &in.Reason)
}

// HandleReport is the admin decision on a reported review.
func (u *Usecase) HandleReport(ctx context.Context, id string, in HandleInput) (*Review, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	r, err := u.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusReported {
		return nil, ErrInvalidInput
	}
	if in.Action == "remove" {
		return u.store.SetStatus(ctx, id, StatusRemoved, nil, r.ReportReason)
	}
	return u.store.SetStatus(ctx, id, StatusVisible, nil, nil)
}

func (u *Usecase) ListReported(ctx context.Context) ([]Review, error) {
	return u.store.ListReported(ctx)
}
