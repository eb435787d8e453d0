package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
)

const FulfillmentSourceName = "fulfillment"

// FulfillmentConfig holds the logistics API credentials. Requests are scoped
// to a single company.
type FulfillmentConfig struct {
	BaseURL   string
	CompanyID string
	Username  string
	Password  string
}

// FulfillmentSource is the primary catalog: a company-scoped product list
// queried by SKU, or a direct product fetch when only an id is known.
type FulfillmentSource struct {
	cfg    FulfillmentConfig
	client HTTPDoer
}

func NewFulfillmentSource(cfg FulfillmentConfig, client HTTPDoer) *FulfillmentSource {
	if client == nil {
		client = NewHTTPClient(0)
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return &FulfillmentSource{cfg: cfg, client: client}
}

func (*FulfillmentSource) Name() string { return FulfillmentSourceName }

func (s *FulfillmentSource) Lookup(ctx context.Context, q Query) (string, error) {
	if q.empty() {
		return "", nil
	}

	base := s.cfg.BaseURL + "/companies/" + url.PathEscape(s.cfg.CompanyID) + "/products"
	req := request{
		source: FulfillmentSourceName,
		user:   s.cfg.Username,
		pass:   s.cfg.Password,
	}
	if q.SKU != "" {
		req.url = base
		req.query = url.Values{"sku": []string{q.SKU}}
	} else {
		req.url = base + "/" + url.PathEscape(q.ProductID)
	}

	body, err := get(ctx, s.client, req)
	if err != nil {
		return "", err
	}
	name, err := decodeProductName(body)
	if err != nil {
		return "", malformed(FulfillmentSourceName, err)
	}
	return name, nil
}

type namedProduct struct {
	Name       string `json:"name"`
	Attributes struct {
		Name string `json:"name"`
	} `json:"attributes"`
}

func (p namedProduct) name() string {
	if n := strings.TrimSpace(p.Name); n != "" {
		return n
	}
	return strings.TrimSpace(p.Attributes.Name)
}

var errUnexpectedShape = errors.New("unexpected product payload shape")

// decodeProductName accepts a flat list, a single object, or a JSON-API
// envelope whose data is a list or a single resource.
func decodeProductName(body []byte) (string, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return "", errUnexpectedShape
	}

	switch body[0] {
	case '[':
		var list []namedProduct
		if err := json.Unmarshal(body, &list); err != nil {
			return "", err
		}
		return firstName(list), nil
	case '{':
		var envelope struct {
			namedProduct
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return "", err
		}
		data := bytes.TrimSpace(envelope.Data)
		if len(data) == 0 || bytes.Equal(data, []byte("null")) {
			return envelope.namedProduct.name(), nil
		}
		return decodeProductName(data)
	default:
		return "", errUnexpectedShape
	}
}

func firstName(list []namedProduct) string {
	for _, p := range list {
		if n := p.name(); n != "" {
			return n
		}
	}
	return ""
}

var _ Source = (*FulfillmentSource)(nil)
