package transport

import (
	"github.com/Skotchmaster/coffee_shop/internal/models"
)

// ProductRequest is the body of both create and update. Rating is server-owned
// and ignored when sent.
type ProductRequest struct {
	Name             string   `json:"name"             validate:"required"`
	Price            *float64 `json:"price"            validate:"required,gte=0"`
	Description      string   `json:"description"      validate:"required"`
	ImageSrc         string   `json:"imageSrc"         validate:"required"`
	Details          string   `json:"details"          validate:"required"`
	TasteDescription string   `json:"tasteDescription" validate:"required"`
	Ingredients      string   `json:"ingredients"      validate:"required"`
	CountryOfOrigin  string   `json:"countryOfOrigin"  validate:"required"`
}

func (r ProductRequest) ToModel(id uint) models.Product {
	p := models.Product{
		ID:               id,
		Name:             r.Name,
		Description:      r.Description,
		ImageSrc:         r.ImageSrc,
		Details:          r.Details,
		TasteDescription: r.TasteDescription,
		Ingredients:      r.Ingredients,
		CountryOfOrigin:  r.CountryOfOrigin,
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	return p
}

type CommentRequest struct {
	Username string  `json:"username" validate:"required"`
	Comment  string  `json:"comment"  validate:"required"`
	Rating   float64 `json:"rating"   validate:"required"`
}

type AddToCartRequest struct {
	ProductID uint `json:"productId" validate:"required"`
	Quantity  uint `json:"quantity"  validate:"required"`
}

// UpdateCartRequest accepts a full cart. Display fields on items are dropped
// before persisting.
type UpdateCartRequest struct {
	ID     uint                      `json:"id"`
	Items  []models.EnrichedCartItem `json:"items"`
	Active bool                      `json:"active"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginUser struct {
	Email string `json:"email"`
}

type LoginResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	User    *LoginUser `json:"user,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ProductResponse struct {
	Message string          `json:"message"`
	Product *models.Product `json:"product"`
}

type CommentResponse struct {
	Message string  `json:"message"`
	Rating  float64 `json:"rating"`
}

type CartUpdatedResponse struct {
	Message string                    `json:"message"`
	Items   []models.EnrichedCartItem `json:"items"`
}
