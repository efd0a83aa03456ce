package shopify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"promosync/internal/logger"
	"promosync/internal/models"
)

const productsQuery = `
query Products($pageSize: Int!, $cursor: String, $query: String) {
  products(first: $pageSize, after: $cursor, query: $query) {
    edges {
      cursor
      node {
        id
        title
        handle
        descriptionHtml
        vendor
        productType
        status
        tags
        onlineStoreUrl
        featuredImage { url }
        variants(first: 1) {
          edges { node { price compareAtPrice } }
        }
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}`

type Client struct {
	shopDomain  string
	accessToken string
	apiVersion  string
	pageSize    int
	endpoint    string
	httpClient  *http.Client
	transformer *Transformer
	logger      *logger.Logger
}

func NewClient(shopDomain, accessToken, apiVersion string, pageSize int, logger *logger.Logger) *Client {
	return &Client{
		shopDomain:  shopDomain,
		accessToken: accessToken,
		apiVersion:  apiVersion,
		pageSize:    pageSize,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		transformer: NewTransformer(shopDomain),
		logger:      logger,
	}
}

// WithEndpoint overrides the Admin API URL. Used by tests.
func (c *Client) WithEndpoint(url string) *Client {
	c.endpoint = url
	return c
}

func (c *Client) url() string {
	if c.endpoint != "" {
		return c.endpoint
	}
	return fmt.Sprintf("https://%s.myshopify.com/admin/api/%s/graphql.json", c.shopDomain, c.apiVersion)
}

// FetchPage fetches one page of products, optionally filtered, starting
// after the given cursor. An empty cursor fetches the first page.
func (c *Client) FetchPage(filter, cursor string) (*ProductPage, error) {
	variables := map[string]interface{}{
		"pageSize": c.pageSize,
	}
	if cursor != "" {
		variables["cursor"] = cursor
	}
	if filter != "" {
		variables["query"] = filter
	}

	body, err := json.Marshal(graphQLRequest{
		Query:     productsQuery,
		Variables: variables,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req, err := http.NewRequest("POST", c.url(), bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API request failed: %d - %s", resp.StatusCode, string(respBody))
	}

	var gqlResp graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(gqlResp.Errors) > 0 {
		messages := make([]string, len(gqlResp.Errors))
		for i, e := range gqlResp.Errors {
			messages[i] = e.Message
		}
		return nil, fmt.Errorf("GraphQL errors: %s", strings.Join(messages, "; "))
	}

	conn := gqlResp.Data.Products
	page := &ProductPage{
		Products:    make([]models.Product, 0, len(conn.Edges)),
		EndCursor:   conn.PageInfo.EndCursor,
		HasNextPage: conn.PageInfo.HasNextPage,
	}
	for _, edge := range conn.Edges {
		page.Products = append(page.Products, *c.transformer.TransformProduct(&edge.Node))
	}

	return page, nil
}

// Pages returns a lazy sequential iterator over the full result set for
// one sync attempt. The cursor is only valid for the page after the one
// just fetched, so iteration is strictly in order and restartable only
// from scratch.
func (c *Client) Pages(filter string) *PageIterator {
	return &PageIterator{client: c, filter: filter}
}

type PageIterator struct {
	client *Client
	filter string
	cursor string
	done   bool
}

// Next fetches the next page. The second return value is false once the
// sequence is exhausted.
func (it *PageIterator) Next() (*ProductPage, bool, error) {
	if it.done {
		return nil, false, nil
	}

	page, err := it.client.FetchPage(it.filter, it.cursor)
	if err != nil {
		it.done = true
		return nil, false, err
	}

	it.cursor = page.EndCursor
	if !page.HasNextPage {
		it.done = true
	}

	return page, true, nil
}

// FilterSince builds the platform's modified-since query filter. The
// timestamp is truncated to whole seconds; the platform rejects
// fractional precision.
func FilterSince(t time.Time) string {
	return fmt.Sprintf("updated_at:>=%s", t.UTC().Truncate(time.Second).Format("2006-01-02T15:04:05Z"))
}
