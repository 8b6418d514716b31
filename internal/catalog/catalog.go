package catalog

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wichananm65/souq-backend/internal/category"
	"github.com/wichananm65/souq-backend/internal/product"
	"github.com/wichananm65/souq-backend/internal/review"
)

type Products interface {
	Browse(ctx context.Context, f product.Filter) ([]product.Product, error)
	Featured(ctx context.Context) ([]product.Product, error)
	GetActive(ctx context.Context, id uuid.UUID) (product.Product, error)
}

type Categories interface {
	List(ctx context.Context, limit int) ([]category.Category, error)
	Lookup(ctx context.Context, id *uuid.UUID) (*category.Category, error)
}

type Ratings interface {
	Stats(ctx context.Context, productID uuid.UUID) (review.Stats, error)
}

type Favorites interface {
	Status(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

type Home struct {
	Featured   []product.View      `json:"featured"`
	Categories []category.Category `json:"categories"`
}

// Detail is the product page. Category is nil when the product is
// uncategorized or its category was deleted.
type Detail struct {
	Product    product.View       `json:"product"`
	Category   *category.Category `json:"category"`
	Rating     review.Stats       `json:"rating"`
	IsFavorite bool               `json:"is_favorite"`
}

type Service struct {
	products   Products
	categories Categories
	ratings    Ratings
	favorites  Favorites
}

func NewService(p Products, c Categories, r Ratings, f Favorites) *Service {
	return &Service{products: p, categories: c, ratings: r, favorites: f}
}

func (s *Service) Home(ctx context.Context) (Home, error) {
	var home Home
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		featured, err := s.products.Featured(gctx)
		home.Featured = product.Views(featured)
		return err
	})
	g.Go(func() error {
		var err error
		home.Categories, err = s.categories.List(gctx, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return Home{}, err
	}
	if home.Categories == nil {
		home.Categories = []category.Category{}
	}
	return home, nil
}

func (s *Service) Browse(ctx context.Context, f product.Filter) ([]product.View, error) {
	found, err := s.products.Browse(ctx, f)
	if err != nil {
		return nil, err
	}
	return product.Views(found), nil
}

// Detail loads an active product with its category, rating and, for a
// signed-in caller, the favorite flag.
func (s *Service) Detail(ctx context.Context, id, callerID uuid.UUID) (Detail, error) {
	p, err := s.products.GetActive(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	d := Detail{Product: p.View()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.Category, err = s.categories.Lookup(gctx, p.CategoryID)
		return err
	})
	g.Go(func() error {
		var err error
		d.Rating, err = s.ratings.Stats(gctx, p.ID)
		return err
	})
	if callerID != uuid.Nil && s.favorites != nil {
		g.Go(func() error {
			var err error
			d.IsFavorite, err = s.favorites.Status(gctx, callerID, p.ID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Detail{}, err
	}
	return d, nil
}
