package favorite

import (
	"time"

	"github.com/google/uuid"

	"github.com/wichananm65/souq-backend/internal/product"
)

type Favorite struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ProductID uuid.UUID `json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Entry is a favorite joined to its product.
type Entry struct {
	Favorite
	Product product.View `json:"product"`
}
