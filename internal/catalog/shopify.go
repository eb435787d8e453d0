package catalog

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

const (
	ShopifySourceName = "shopify"

	DefaultShopifyAPIVersion = "2024-01"
	DefaultShopifyPageSize   = 250
	shopifyDomainSuffix      = ".myshopify.com"
)

// ShopifyConfig scopes the fallback catalog to one store. BaseURL wins over
// Store when both are set.
type ShopifyConfig struct {
	BaseURL     string
	Store       string
	AccessToken string
	APIVersion  string
	PageSize    int
}

// ShopifySource scans the first page of the store's products for a variant
// carrying the requested SKU.
type ShopifySource struct {
	cfg    ShopifyConfig
	client HTTPDoer
}

func NewShopifySource(cfg ShopifyConfig, client HTTPDoer) *ShopifySource {
	if client == nil {
		client = NewHTTPClient(0)
	}
	if strings.TrimSpace(cfg.APIVersion) == "" {
		cfg.APIVersion = DefaultShopifyAPIVersion
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultShopifyPageSize
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = storeURL(cfg.Store)
	}
	return &ShopifySource{cfg: cfg, client: client}
}

func storeURL(store string) string {
	store = strings.TrimSpace(store)
	if store == "" {
		return ""
	}
	if !strings.HasSuffix(store, shopifyDomainSuffix) {
		store += shopifyDomainSuffix
	}
	return "https://" + store
}

func (*ShopifySource) Name() string { return ShopifySourceName }

type shopifyProducts struct {
	Products []struct {
		Title    string `json:"title"`
		Variants []struct {
			SKU string `json:"sku"`
		} `json:"variants"`
	} `json:"products"`
}

func (s *ShopifySource) Lookup(ctx context.Context, q Query) (string, error) {
	if q.SKU == "" {
		return "", nil
	}

	body, err := get(ctx, s.client, request{
		source:  ShopifySourceName,
		url:     s.cfg.BaseURL + "/admin/api/" + url.PathEscape(s.cfg.APIVersion) + "/products.json",
		query:   url.Values{"limit": []string{strconv.Itoa(s.cfg.PageSize)}},
		headers: map[string]string{"X-Shopify-Access-Token": s.cfg.AccessToken},
	})
	if err != nil {
		return "", err
	}

	var page shopifyProducts
	if err := json.Unmarshal(body, &page); err != nil {
		return "", malformed(ShopifySourceName, err)
	}
	for _, p := range page.Products {
		for _, v := range p.Variants {
			if strings.TrimSpace(v.SKU) == q.SKU {
				return strings.TrimSpace(p.Title), nil
			}
		}
	}
	return "", nil
}

var _ Source = (*ShopifySource)(nil)
