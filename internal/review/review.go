package review

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AnonymousName is shown for reviewers without a profile name.
const AnonymousName = "مستخدم"

type Review struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ProductID uuid.UUID `json:"product_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// Entry is a review with its author's display name.
type Entry struct {
	Review
	ReviewerName string `json:"reviewer_name"`
}

type Stats struct {
	Average float64 `json:"average"`
	Count   int     `json:"total"`
}

// ComputeStats returns the mean rating rounded to one decimal place.
func ComputeStats(reviews []Review) Stats {
	if len(reviews) == 0 {
		return Stats{}
	}
	sum := int64(0)
	for _, r := range reviews {
		sum += int64(r.Rating)
	}
	avg := decimal.NewFromInt(sum).Div(decimal.NewFromInt(int64(len(reviews)))).Round(1)
	return Stats{Average: avg.InexactFloat64(), Count: len(reviews)}
}
