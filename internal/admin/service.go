package admin

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/wichananm65/souq-backend/internal/category"
	"github.com/wichananm65/souq-backend/internal/order"
	"github.com/wichananm65/souq-backend/internal/product"
)

type ProductLister interface {
	ListAll(ctx context.Context) ([]product.Product, error)
}

type CategoryLister interface {
	List(ctx context.Context, limit int) ([]category.Category, error)
}

type OrderLister interface {
	ListAll(ctx context.Context) ([]order.Order, error)
}

type UserCounter interface {
	Count(ctx context.Context) (int, error)
}

type Stats struct {
	TotalProducts int             `json:"totalProducts"`
	TotalOrders   int             `json:"totalOrders"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TotalUsers    int             `json:"totalUsers"`
}

type Dashboard struct {
	Stats      Stats               `json:"stats"`
	Products   []product.View      `json:"products"`
	Categories []category.Category `json:"categories"`
	Orders     []order.Order       `json:"orders"`
}

type Service struct {
	products   ProductLister
	categories CategoryLister
	orders     OrderLister
	users      UserCounter
	settings   SettingsRepository
}

func NewService(p ProductLister, c CategoryLister, o OrderLister, u UserCounter, settings SettingsRepository) *Service {
	return &Service{products: p, categories: c, orders: o, users: u, settings: settings}
}

// Dashboard loads every back-office list at once. Any failed load fails the
// whole dashboard.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var (
		d        Dashboard
		products []product.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.products.ListAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.Categories, err = s.categories.List(gctx, 0)
		return err
	})
	g.Go(func() error {
		var err error
		d.Orders, err = s.orders.ListAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.Stats.TotalUsers, err = s.users.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	d.Products = product.Views(products)
	if d.Categories == nil {
		d.Categories = []category.Category{}
	}
	if d.Orders == nil {
		d.Orders = []order.Order{}
	}
	d.Stats.TotalProducts = len(d.Products)
	d.Stats.TotalOrders = len(d.Orders)
	d.Stats.TotalRevenue = decimal.Zero
	for _, o := range d.Orders {
		d.Stats.TotalRevenue = d.Stats.TotalRevenue.Add(o.TotalAmount)
	}
	return d, nil
}

// ExportProducts writes every product, inactive ones included, as a
// workbook.
func (s *Service) ExportProducts(ctx context.Context) ([]byte, error) {
	var (
		products   []product.Product
		categories []category.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.products.ListAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.categories.List(gctx, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.NameAr
	}
	return productWorkbook(products, names)
}

func (s *Service) Settings(ctx context.Context) (Settings, error) {
	return s.settings.Get(ctx)
}

func (s *Service) SaveSettings(ctx context.Context, in Settings) (Settings, error) {
	return s.settings.Save(ctx, in)
}
