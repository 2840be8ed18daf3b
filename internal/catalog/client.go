package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

var ErrProductNotFound = errors.New("product not found")

// Client fetches raw catalog data from the upstream product API and decodes
// it into the stable local schema.
type Client interface {
	FetchProducts(ctx context.Context, opts QueryOptions) (*ProductList, error)
	FetchProduct(ctx context.Context, id string) (*Product, error)
	FetchCategories(ctx context.Context) ([]Category, error)
}

type httpClient struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) Client {
	return &httpClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// upstreamProduct mirrors the upstream JSON. Optional fields are pointers so
// the defaulting policy can tell absent from zero.
type upstreamProduct struct {
	ID          json.Number `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Price       float64     `json:"price"`
	Thumbnail   string      `json:"thumbnail"`
	Images      []string    `json:"images"`
	Category    string      `json:"category"`
	Stock       *int        `json:"stock"`
	Rating      *float64    `json:"rating"`
	Brand       *string     `json:"brand"`
}

type upstreamProductList struct {
	Products []upstreamProduct `json:"products"`
	Total    *int              `json:"total"`
	Limit    *int              `json:"limit"`
	Skip     *int              `json:"skip"`
}

type upstreamCategory struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Defaulting policy: thumbnail falls back to the first image then a
// placeholder, stock to zero; rating and brand stay absent.
func (p upstreamProduct) toLocal() Product {
	thumbnail := p.Thumbnail
	if thumbnail == "" && len(p.Images) > 0 {
		thumbnail = p.Images[0]
	}
	if thumbnail == "" {
		thumbnail = placeholderThumbnail
	}

	stock := 0
	if p.Stock != nil {
		stock = *p.Stock
	}

	return Product{
		ID:          p.ID.String(),
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Thumbnail:   thumbnail,
		Category:    p.Category,
		Stock:       stock,
		Rating:      p.Rating,
		Brand:       p.Brand,
	}
}

func (c *httpClient) FetchProducts(ctx context.Context, opts QueryOptions) (*ProductList, error) {
	opts.Normalize()

	page := url.Values{}
	page.Set("limit", strconv.Itoa(opts.Limit))
	page.Set("skip", strconv.Itoa(opts.Skip))

	// Search wins over category; both absent means the plain listing.
	var endpoint string
	switch {
	case opts.Search != "":
		page.Set("q", opts.Search)
		endpoint = c.baseURL + "/products/search?" + page.Encode()
	case opts.Category != "":
		endpoint = c.baseURL + "/products/category/" + url.PathEscape(opts.Category) + "?" + page.Encode()
	default:
		endpoint = c.baseURL + "/products?" + page.Encode()
	}

	var raw upstreamProductList
	if err := c.getJSON(ctx, endpoint, &raw); err != nil {
		return nil, err
	}

	list := &ProductList{
		Products: make([]Product, 0, len(raw.Products)),
		Total:    len(raw.Products),
		Limit:    opts.Limit,
		Skip:     opts.Skip,
	}
	for _, p := range raw.Products {
		list.Products = append(list.Products, p.toLocal())
	}
	if raw.Total != nil {
		list.Total = *raw.Total
	}
	if raw.Limit != nil {
		list.Limit = *raw.Limit
	}
	if raw.Skip != nil {
		list.Skip = *raw.Skip
	}

	return list, nil
}

func (c *httpClient) FetchProduct(ctx context.Context, id string) (*Product, error) {
	var raw upstreamProduct
	err := c.getJSON(ctx, c.baseURL+"/products/"+url.PathEscape(id), &raw)
	if err != nil {
		return nil, err
	}

	p := raw.toLocal()
	return &p, nil
}

func (c *httpClient) FetchCategories(ctx context.Context) ([]Category, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/products/categories", nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	// The upstream has shipped both plain slug arrays and object arrays.
	var objects []upstreamCategory
	if err := json.Unmarshal(body, &objects); err == nil && len(objects) > 0 && objects[0].Slug != "" {
		return mapCategories(objects), nil
	}

	var slugs []string
	if err := json.Unmarshal(body, &slugs); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}

	objects = objects[:0]
	for _, slug := range slugs {
		objects = append(objects, upstreamCategory{Slug: slug})
	}
	return mapCategories(objects), nil
}

func (c *httpClient) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	body, err := c.do(req)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return nil
}

func (c *httpClient) do(req *http.Request) ([]byte, error) {
	log := logger.FromCtx(req.Context()).With(
		zap.String("upstream", "catalog"),
		zap.String("url", req.URL.String()),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Error("catalog request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("failed to read catalog response", zap.Error(err))
		return nil, fmt.Errorf("failed to read catalog response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrProductNotFound
	}
	if resp.StatusCode != http.StatusOK {
		log.Error("catalog returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", body),
		)
		return nil, fmt.Errorf("catalog error: status %d", resp.StatusCode)
	}

	return body, nil
}

func mapCategories(in []upstreamCategory) []Category {
	out := make([]Category, 0, len(in))
	for i, c := range in {
		slug := c.Slug
		if slug == "" {
			slug = fmt.Sprintf("category-%d", i)
		}
		name := c.Name
		if name == "" {
			name = deslug(slug)
		}
		out = append(out, Category{
			ID:          slug,
			Name:        name,
			Slug:        slug,
			Description: "Browse " + deslug(slug) + " products.",
		})
	}
	return out
}

func deslug(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] == '-' {
			b[i] = ' '
		}
	}
	return string(b)
}
