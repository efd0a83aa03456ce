package shopify

import (
	"promosync/internal/models"
)

// GraphQL request/response envelopes for the Admin API.
type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data struct {
		Products ProductConnection `json:"products"`
	} `json:"data"`
	Errors []graphQLError `json:"errors,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

// ProductConnection is the cursor-paginated products payload.
type ProductConnection struct {
	Edges    []ProductEdge `json:"edges"`
	PageInfo PageInfo      `json:"pageInfo"`
}

type ProductEdge struct {
	Cursor string      `json:"cursor"`
	Node   ProductNode `json:"node"`
}

type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// ProductNode is the raw product shape returned by the query.
type ProductNode struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Handle          string   `json:"handle"`
	DescriptionHTML string   `json:"descriptionHtml"`
	Vendor          string   `json:"vendor"`
	ProductType     string   `json:"productType"`
	Status          string   `json:"status"`
	Tags            []string `json:"tags"`
	OnlineStoreURL  string   `json:"onlineStoreUrl"`
	FeaturedImage   *struct {
		URL string `json:"url"`
	} `json:"featuredImage"`
	Variants struct {
		Edges []struct {
			Node VariantNode `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
}

type VariantNode struct {
	Price          string  `json:"price"`
	CompareAtPrice *string `json:"compareAtPrice"`
}

// ProductPage is one normalized page of catalog data plus the continuation
// cursor needed to fetch the page after it.
type ProductPage struct {
	Products    []models.Product
	EndCursor   string
	HasNextPage bool
}
