package cart

import "time"

// Line is a product snapshot plus quantity. The snapshot is captured when
// the line is added, not re-read from the catalog.
type Line struct {
	ProductID string  `json:"productId"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Thumbnail string  `json:"thumbnail"`
	Quantity  int     `json:"quantity"`
}

type Cart struct {
	UserID    uint      `json:"userId"`
	Items     []Line    `json:"items"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Subtotal is the sum of price times quantity over the lines.
func (c *Cart) Subtotal() float64 {
	var total float64
	for _, l := range c.Items {
		total += l.Price * float64(l.Quantity)
	}
	return total
}
