package catalog

// Product is the stable local schema for an upstream catalog record.
type Product struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Thumbnail   string   `json:"thumbnail"`
	Category    string   `json:"category"`
	Stock       int      `json:"stock"`
	Rating      *float64 `json:"rating"`
	Brand       *string  `json:"brand"`
}

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

type ProductList struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Limit    int       `json:"limit"`
	Skip     int       `json:"skip"`
}

const (
	defaultLimit         = 48
	placeholderThumbnail = "https://via.placeholder.com/300"
)

// QueryOptions selects a catalog page. Search takes precedence over
// Category; with both absent the listing is unfiltered.
type QueryOptions struct {
	Search   string
	Category string
	Limit    int
	Skip     int
}

func (o *QueryOptions) Normalize() {
	if o.Limit <= 0 {
		o.Limit = defaultLimit
	}
	if o.Skip < 0 {
		o.Skip = 0
	}
}
