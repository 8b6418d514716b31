package category

import (
	"time"

	"github.com/google/uuid"
)

// Category groups products on the storefront. Only the Arabic name is
// required.
type Category struct {
	ID            uuid.UUID `json:"id"`
	NameAr        string    `json:"name_ar"`
	NameEn        string    `json:"name_en"`
	DescriptionAr string    `json:"description_ar"`
	DescriptionEn string    `json:"description_en"`
	ImageURL      string    `json:"image_url"`
	CreatedAt     time.Time `json:"created_at"`
}

// Input is the admin create/update payload.
type Input struct {
	NameAr        string `json:"name_ar" validate:"notblank,max=120"`
	NameEn        string `json:"name_en" validate:"max=120"`
	DescriptionAr string `json:"description_ar" validate:"max=2000"`
	DescriptionEn string `json:"description_en" validate:"max=2000"`
	ImageURL      string `json:"image_url" validate:"omitempty,imageurl"`
	// ImageURLs carries the admin form's uploads; the first one becomes the
	// category image when image_url is empty.
	ImageURLs []string `json:"image_urls" validate:"max=10,dive,imageurl"`
}

func (in Input) apply(c Category) Category {
	c.NameAr = in.NameAr
	c.NameEn = in.NameEn
	c.DescriptionAr = in.DescriptionAr
	c.DescriptionEn = in.DescriptionEn
	c.ImageURL = in.ImageURL
	if c.ImageURL == "" && len(in.ImageURLs) > 0 {
		c.ImageURL = in.ImageURLs[0]
	}
	return c
}
