package review

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/wichananm65/souq-backend/internal/product"
)

type ProductChecker interface {
	GetActive(ctx context.Context, id uuid.UUID) (product.Product, error)
}

type NameLookup interface {
	Names(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error)
}

type Service struct {
	repo     Repository
	products ProductChecker
	names    NameLookup
}

func NewService(repo Repository, products ProductChecker, names NameLookup) *Service {
	return &Service{repo: repo, products: products, names: names}
}

// Listing is everything the product page renders about reviews. Mine is the
// caller's own review, when there is one.
type Listing struct {
	Reviews []Entry `json:"reviews"`
	Stats   Stats   `json:"stats"`
	Mine    *Entry  `json:"mine"`
}

func (s *Service) List(ctx context.Context, productID, callerID uuid.UUID) (Listing, error) {
	reviews, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return Listing{}, err
	}
	entries, err := s.withNames(ctx, reviews)
	if err != nil {
		return Listing{}, err
	}
	out := Listing{Reviews: entries, Stats: ComputeStats(reviews)}
	if callerID != uuid.Nil {
		for i := range entries {
			if entries[i].UserID == callerID {
				out.Mine = &entries[i]
				break
			}
		}
	}
	return out, nil
}

// Stats is the aggregate shown next to the product title.
func (s *Service) Stats(ctx context.Context, productID uuid.UUID) (Stats, error) {
	reviews, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(reviews), nil
}

// Submit updates the caller's existing review in place or creates one, and
// returns it with the recomputed stats.
func (s *Service) Submit(ctx context.Context, userID, productID uuid.UUID, rating int, comment string) (Entry, Stats, error) {
	if rating < 1 || rating > 5 {
		return Entry{}, Stats{}, ErrInvalidRating
	}
	if _, err := s.products.GetActive(ctx, productID); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return Entry{}, Stats{}, ErrProductNotFound
		}
		return Entry{}, Stats{}, err
	}

	reviews, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return Entry{}, Stats{}, err
	}
	rv := Review{UserID: userID, ProductID: productID, Rating: rating, Comment: strings.TrimSpace(comment)}
	for _, existing := range reviews {
		if existing.UserID == userID {
			rv.ID = existing.ID
			break
		}
	}

	var saved Review
	if rv.ID != uuid.Nil {
		saved, err = s.repo.Update(ctx, rv)
	} else {
		saved, err = s.repo.Insert(ctx, rv)
	}
	if err != nil {
		return Entry{}, Stats{}, err
	}

	stats, err := s.Stats(ctx, productID)
	if err != nil {
		return Entry{}, Stats{}, err
	}
	entries, err := s.withNames(ctx, []Review{saved})
	if err != nil {
		return Entry{}, Stats{}, err
	}
	return entries[0], stats, nil
}

func (s *Service) withNames(ctx context.Context, reviews []Review) ([]Entry, error) {
	ids := make([]uuid.UUID, 0, len(reviews))
	for _, r := range reviews {
		ids = append(ids, r.UserID)
	}
	names := map[uuid.UUID]string{}
	if len(ids) > 0 && s.names != nil {
		var err error
		if names, err = s.names.Names(ctx, ids); err != nil {
			return nil, err
		}
	}
	out := make([]Entry, len(reviews))
	for i, r := range reviews {
		name := names[r.UserID]
		if name == "" {
			name = AnonymousName
		}
		out[i] = Entry{Review: r, ReviewerName: name}
	}
	return out, nil
}
