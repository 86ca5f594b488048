// Package shopify реализует OrderSource поверх Shopify Admin GraphQL API.
package shopify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/qts/internal/domain"
)

const (
	apiVersion = "2024-01"

	// lineItemPageSize — максимум позиций на страницу в Admin API.
	lineItemPageSize = 250
	orderPageSize    = 50

	defaultDaysBack = 14
	requestTimeout  = 30 * time.Second
)

// Client — GraphQL-клиент одного магазина Shopify.
type Client struct {
	shopURL    string
	apiToken   string
	endpoint   string
	httpClient *http.Client
	logger     *log.Entry
}

// Option настраивает клиент при создании.
type Option func(*Client)

// WithHTTPClient подменяет HTTP-клиент (для тестов и кастомных транспортов).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithEndpoint подменяет URL GraphQL-эндпоинта (для тестов).
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithLogger подменяет логгер клиента.
func WithLogger(logger *log.Entry) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient создаёт клиент магазина. shopURL принимает как полный адрес,
// так и короткое имя магазина.
func NewClient(shopURL, apiToken string, opts ...Option) *Client {
	normalized := normalizeShopURL(shopURL)

	c := &Client{
		shopURL:    normalized,
		apiToken:   apiToken,
		endpoint:   fmt.Sprintf("https://%s/admin/api/%s/graphql.json", normalized, apiVersion),
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     log.WithField("component", "shopify-client"),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// normalizeShopURL убирает схему и доводит короткое имя до *.myshopify.com.
func normalizeShopURL(raw string) string {
	url := strings.TrimSpace(raw)
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimSuffix(url, "/")

	if !strings.HasSuffix(url, ".myshopify.com") && !strings.Contains(url, ".") {
		url = url + ".myshopify.com"
	}
	return url
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

func (c *Client) execute(query string, variables map[string]any) (json.RawMessage, error) {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("marshal graphql request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.apiToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("shop", c.shopURL).Error("shopify request failed")
		return nil, fmt.Errorf("shopify request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read shopify response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("shopify responded with status %d", resp.StatusCode)
	}

	var result graphQLResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode shopify response: %w", err)
	}
	if len(result.Errors) > 0 {
		messages := make([]string, 0, len(result.Errors))
		for _, gqlErr := range result.Errors {
			messages = append(messages, gqlErr.Message)
		}
		return nil, fmt.Errorf("graphql errors: %s", strings.Join(messages, ", "))
	}

	return result.Data, nil
}

// TestConnection проверяет доступность магазина и возвращает его описание.
func (c *Client) TestConnection() (string, error) {
	const query = `{ shop { name email currencyCode } }`

	data, err := c.execute(query, nil)
	if err != nil {
		return "", err
	}

	var result struct {
		Shop *struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"shop"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("decode shop info: %w", err)
	}
	if result.Shop == nil {
		return "", fmt.Errorf("no shop data returned")
	}

	return fmt.Sprintf("Connected to %s (%s)", result.Shop.Name, result.Shop.Email), nil
}

// GetOrder возвращает заказ по числовому или GID идентификатору.
func (c *Client) GetOrder(id string) (domain.Order, error) {
	gid := orderGID(id)

	query := fmt.Sprintf(`
		query getOrder($id: ID!) {
			order(id: $id) {
				%s
			}
		}`, orderFields)

	data, err := c.execute(query, map[string]any{"id": gid})
	if err != nil {
		return domain.Order{}, err
	}

	var result struct {
		Order *orderNode `json:"order"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return domain.Order{}, fmt.Errorf("decode order: %w", err)
	}
	if result.Order == nil {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	items, err := c.collectLineItems(result.Order)
	if err != nil {
		return domain.Order{}, err
	}

	return parseOrder(result.Order, items), nil
}

// ListUnfulfilled возвращает невыполненные заказы за последние daysBack дней,
// проходя все страницы результата.
func (c *Client) ListUnfulfilled(daysBack int) ([]domain.Order, error) {
	if daysBack <= 0 {
		daysBack = defaultDaysBack
	}
	since := time.Now().UTC().AddDate(0, 0, -daysBack).Format("2006-01-02T15:04:05Z")
	search := fmt.Sprintf("created_at:>'%s' AND fulfillment_status:unfulfilled", since)

	query := fmt.Sprintf(`
		query listOrders($first: Int!, $query: String!, $after: String) {
			orders(first: $first, query: $query, after: $after) {
				pageInfo {
					hasNextPage
					endCursor
				}
				edges {
					node {
						%s
					}
				}
			}
		}`, orderFields)

	var (
		orders []domain.Order
		cursor *string
	)
	for {
		variables := map[string]any{
			"first": orderPageSize,
			"query": search,
		}
		if cursor != nil {
			variables["after"] = *cursor
		}

		data, err := c.execute(query, variables)
		if err != nil {
			return nil, err
		}

		var result struct {
			Orders struct {
				PageInfo pageInfo `json:"pageInfo"`
				Edges    []struct {
					Node orderNode `json:"node"`
				} `json:"edges"`
			} `json:"orders"`
		}
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("decode orders page: %w", err)
		}

		for i := range result.Orders.Edges {
			node := result.Orders.Edges[i].Node
			items, err := c.collectLineItems(&node)
			if err != nil {
				return nil, err
			}
			orders = append(orders, parseOrder(&node, items))
		}

		if !result.Orders.PageInfo.HasNextPage || result.Orders.PageInfo.EndCursor == nil {
			break
		}
		cursor = result.Orders.PageInfo.EndCursor
	}

	c.logger.WithFields(log.Fields{
		"shop":      c.shopURL,
		"days_back": daysBack,
		"orders":    len(orders),
	}).Info("fetched unfulfilled orders")

	return orders, nil
}

// collectLineItems возвращает все позиции заказа, дотягивая хвост
// курсорной пагинации, когда их больше одной страницы.
func (c *Client) collectLineItems(node *orderNode) ([]lineItemNode, error) {
	items := make([]lineItemNode, 0, len(node.LineItems.Edges))
	for _, edge := range node.LineItems.Edges {
		items = append(items, edge.Node)
	}

	pageInfo := node.LineItems.PageInfo
	cursor := pageInfo.EndCursor
	for pageInfo.HasNextPage && cursor != nil {
		page, err := c.fetchLineItemsPage(node.ID, *cursor)
		if err != nil {
			return nil, err
		}
		for _, edge := range page.Edges {
			items = append(items, edge.Node)
		}
		pageInfo = page.PageInfo
		cursor = page.PageInfo.EndCursor
	}

	return items, nil
}

func (c *Client) fetchLineItemsPage(orderGID, cursor string) (*lineItemConnection, error) {
	query := fmt.Sprintf(`
		query orderLineItems($id: ID!, $first: Int!, $after: String) {
			order(id: $id) {
				lineItems(first: $first, after: $after) {
					%s
				}
			}
		}`, lineItemFields)

	data, err := c.execute(query, map[string]any{
		"id":    orderGID,
		"first": lineItemPageSize,
		"after": cursor,
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Order *struct {
			LineItems lineItemConnection `json:"lineItems"`
		} `json:"order"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode line items page: %w", err)
	}
	if result.Order == nil {
		return nil, domain.ErrOrderNotFound
	}

	return &result.Order.LineItems, nil
}

// orderGID доводит числовой идентификатор до полного GraphQL ID.
func orderGID(id string) string {
	if strings.HasPrefix(id, "gid://") {
		return id
	}
	return "gid://shopify/Order/" + id
}

// numericID возвращает последний сегмент GraphQL ID.
func numericID(gid string) string {
	if idx := strings.LastIndex(gid, "/"); idx >= 0 {
		return gid[idx+1:]
	}
	return gid
}
