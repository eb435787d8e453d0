package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const DefaultClientTimeout = 10 * time.Second
const defaultResponseBodyLimit int64 = 10 << 20 // 10 MiB

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewHTTPClient returns the client shared by all catalog sources.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultClientTimeout
	}
	return &http.Client{Timeout: timeout}
}

type request struct {
	source  string
	url     string
	query   url.Values
	headers map[string]string
	user    string
	pass    string
}

// get performs a single GET and returns the body of a 2xx response.
func get(ctx context.Context, client HTTPDoer, req request) ([]byte, error) {
	parsedURL, err := url.Parse(strings.TrimSpace(req.url))
	if err != nil || parsedURL.Host == "" {
		return nil, sourceWrapError(
			err,
			goerrors.CategoryBadInput,
			"catalog: invalid request url",
			http.StatusBadRequest,
			map[string]any{"source": req.source, "url": req.url},
		)
	}
	if len(req.query) > 0 {
		q := parsedURL.Query()
		for key, values := range req.query {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		parsedURL.RawQuery = q.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, parsedURL.String(), nil)
	if err != nil {
		return nil, sourceWrapError(
			err,
			goerrors.CategoryBadInput,
			"catalog: create http request",
			http.StatusBadRequest,
			map[string]any{"source": req.source, "url": parsedURL.String()},
		)
	}
	httpReq.Header.Set("Accept", "application/json")
	for key, value := range req.headers {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(key, value)
	}
	if req.user != "" || req.pass != "" {
		httpReq.SetBasicAuth(req.user, req.pass)
	}

	res, err := client.Do(httpReq)
	if err != nil {
		return nil, sourceWrapError(
			err,
			goerrors.CategoryExternal,
			"catalog: execute http request",
			http.StatusBadGateway,
			map[string]any{"source": req.source, "url": parsedURL.String()},
		)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, defaultResponseBodyLimit+1))
	if err != nil {
		return nil, sourceWrapError(
			err,
			goerrors.CategoryExternal,
			"catalog: read response body",
			http.StatusBadGateway,
			map[string]any{"source": req.source, "status_code": res.StatusCode},
		)
	}
	if int64(len(body)) > defaultResponseBodyLimit {
		return nil, sourceError(
			fmt.Sprintf("catalog: response body exceeds limit of %d bytes", defaultResponseBodyLimit),
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			map[string]any{"source": req.source, "status_code": res.StatusCode},
		)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, sourceError(
			fmt.Sprintf("catalog: unexpected status %d", res.StatusCode),
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			map[string]any{"source": req.source, "status_code": res.StatusCode, "url": parsedURL.String()},
		)
	}
	return body, nil
}

func malformed(source string, err error) error {
	return sourceWrapError(
		err,
		goerrors.CategoryOperation,
		"catalog: malformed response body",
		http.StatusBadGateway,
		map[string]any{"source": source},
	)
}
