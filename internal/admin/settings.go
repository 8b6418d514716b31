package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Settings is the store configuration edited in the back office. Checkout
// does not read it; shipping stays free and tax fixed.
type Settings struct {
	StoreName         string          `json:"store_name" validate:"notblank,max=200"`
	StoreDescription  string          `json:"store_description" validate:"max=2000"`
	StoreEmail        string          `json:"store_email" validate:"omitempty,email"`
	StorePhone        string          `json:"store_phone" validate:"max=40"`
	ShippingCost      decimal.Decimal `json:"shipping_cost"`
	FreeShippingLimit decimal.Decimal `json:"free_shipping_limit"`
	DeliveryTime      string          `json:"delivery_time" validate:"oneof=1-2 3-5 5-7"`
	PaymentMethods    []string        `json:"payment_methods" validate:"min=1,dive,oneof=cash card bank_transfer"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func DefaultSettings() Settings {
	return Settings{
		StoreName:         "متجر إلكتروني",
		ShippingCost:      decimal.NewFromInt(25),
		FreeShippingLimit: decimal.NewFromInt(200),
		DeliveryTime:      "3-5",
		PaymentMethods:    []string{"cash", "card", "bank_transfer"},
	}
}

// MoneyErrors reports amounts the validator cannot see.
func (s Settings) MoneyErrors() map[string]string {
	errs := map[string]string{}
	if s.ShippingCost.IsNegative() {
		errs["shipping_cost"] = "must be greater than or equal to 0"
	}
	if s.FreeShippingLimit.IsNegative() {
		errs["free_shipping_limit"] = "must be greater than or equal to 0"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

type SettingsRepository interface {
	Get(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) (Settings, error)
}

type InMemorySettingsRepository struct {
	mu    sync.RWMutex
	saved *Settings
}

func NewInMemorySettingsRepository() *InMemorySettingsRepository {
	return &InMemorySettingsRepository{}
}

func (r *InMemorySettingsRepository) Get(_ context.Context) (Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.saved == nil {
		return DefaultSettings(), nil
	}
	return *r.saved, nil
}

func (r *InMemorySettingsRepository) Save(_ context.Context, s Settings) (Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.UpdatedAt = time.Now().UTC()
	r.saved = &s
	return s, nil
}

// PostgresSettingsRepository keeps a single JSONB row in store_settings.
type PostgresSettingsRepository struct {
	db *sql.DB
}

const (
	getSettingsQuery  = `SELECT payload, updated_at FROM store_settings WHERE id = 1`
	saveSettingsQuery = `INSERT INTO store_settings (id, payload, updated_at) VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
		RETURNING updated_at`
)

func NewPostgresSettingsRepository(db *sql.DB) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{db: db}
}

func (r *PostgresSettingsRepository) Get(ctx context.Context) (Settings, error) {
	var (
		payload   []byte
		updatedAt time.Time
	)
	err := r.db.QueryRowContext(ctx, getSettingsQuery).Scan(&payload, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("get settings: %w", err)
	}
	s := DefaultSettings()
	if err := json.Unmarshal(payload, &s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	s.UpdatedAt = updatedAt
	return s, nil
}

func (r *PostgresSettingsRepository) Save(ctx context.Context, s Settings) (Settings, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return Settings{}, fmt.Errorf("encode settings: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, saveSettingsQuery, payload).Scan(&s.UpdatedAt); err != nil {
		return Settings{}, fmt.Errorf("save settings: %w", err)
	}
	return s, nil
}
