package models

import (
	"time"

	"gorm.io/datatypes"
)

type Product struct {
	ID               uint    `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name             string  `gorm:"not null"                  json:"name"`
	Price            float64 `gorm:"not null"                  json:"price"`
	Description      string  `                                 json:"description"`
	ImageSrc         string  `                                 json:"imageSrc"`
	Details          string  `                                 json:"details"`
	Rating           float64 `gorm:"not null;default:0"        json:"rating"`
	TasteDescription string  `                                 json:"tasteDescription"`
	Ingredients      string  `                                 json:"ingredients"`
	CountryOfOrigin  string  `                                 json:"countryOfOrigin"`
}

type Comment struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	ProductID uint      `gorm:"index;not null"            json:"productId"`
	Username  string    `gorm:"not null"                  json:"username"`
	Comment   string    `gorm:"not null"                  json:"comment"`
	Rating    float64   `gorm:"not null"                  json:"rating"`
	CreatedAt time.Time `                                 json:"createdAt"`
}

// CartItem is the persisted shape of a cart line. Display fields are never stored.
type CartItem struct {
	ProductID uint `json:"productId"`
	Quantity  uint `json:"quantity"`
}

type Cart struct {
	ID        uint                         `gorm:"primaryKey;autoIncrement"                                              json:"id"`
	Items     datatypes.JSONSlice[CartItem] `gorm:"not null"                                                              json:"items"`
	Active    bool                         `gorm:"not null;uniqueIndex:idx_shopping_carts_single_active,where:active = true" json:"active"`
	CreatedAt time.Time                    `                                                                             json:"createdAt"`
	UpdatedAt time.Time                    `                                                                             json:"updatedAt"`
}

func (Cart) TableName() string {
	return "shopping_carts"
}

// EnrichedCartItem is a CartItem joined with live catalog fields at read time.
type EnrichedCartItem struct {
	CartItem
	Name        string   `json:"name,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	ImageSrc    string   `json:"imageSrc,omitempty"`
	Description string   `json:"description,omitempty"`
}

type EnrichedCart struct {
	ID     uint               `json:"id"`
	Items  []EnrichedCartItem `json:"items"`
	Active bool               `json:"active"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
}

// All lists every table managed by AutoMigrate.
func All() []any {
	return []any{&Product{}, &Comment{}, &Cart{}, &User{}}
}
