package advert

import "time"

// Advert types.
const (
	TypePurchase = "purchase"
	TypeSale     = "sale"
	TypeReturn   = "return"
	TypeSwap     = "swap"
)

func ValidType(t string) bool {
	switch t {
	case TypePurchase, TypeSale, TypeReturn, TypeSwap:
		return true
	}
	return false
}

type Advert struct {
	ID         int       `json:"id"`
	UserID     int       `json:"user_id"`
	CategoryID int       `json:"category_id"`
	Topic      string    `json:"topic"`
	City       string    `json:"city"`
	Price      float64   `json:"price"`
	Type       string    `json:"type"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`

	// Joined for display.
	CategoryName string `json:"category_name,omitempty"`
	Author       string `json:"author,omitempty"`
}

type Photo struct {
	ID       int    `json:"id"`
	AdvertID int    `json:"advert_id"`
	Title    string `json:"title"`
	Filepath string `json:"filepath"`
}

// SearchCriteria carries the optional homepage search filters. Zero values
// mean "no filter".
type SearchCriteria struct {
	Topic      string  `json:"topic"`
	City       string  `json:"city"`
	PriceFrom  float64 `json:"price_from"`
	PriceTo    float64 `json:"price_to"`
	Type       string  `json:"type"`
	CategoryID int     `json:"category_id"`
}
