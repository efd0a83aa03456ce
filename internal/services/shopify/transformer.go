package shopify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"promosync/internal/models"
)

const shortTitleLimit = 70

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

type Transformer struct {
	shopDomain string
}

func NewTransformer(shopDomain string) *Transformer {
	return &Transformer{shopDomain: shopDomain}
}

// TransformProduct converts a raw product node to our canonical format.
// Missing optional fields are normalized to safe defaults; a malformed
// product never fails the page it arrived on.
func (t *Transformer) TransformProduct(node *ProductNode) *models.Product {
	product := &models.Product{
		ExternalID:  node.ID,
		Title:       node.Title,
		ShortTitle:  truncateTitle(node.Title, shortTitleLimit),
		Handle:      node.Handle,
		Description: StripHTML(node.DescriptionHTML),
		Vendor:      node.Vendor,
		ProductType: node.ProductType,
		Tags:        strings.Join(node.Tags, ", "),
		Status:      strings.ToLower(node.Status),
		Source:      models.SourceAdminSync,
	}

	if product.Status == "" {
		product.Status = "active"
	}

	product.ProductURL = node.OnlineStoreURL
	if product.ProductURL == "" && node.Handle != "" {
		product.ProductURL = fmt.Sprintf("https://%s.myshopify.com/products/%s", t.shopDomain, node.Handle)
	}

	if node.FeaturedImage != nil {
		product.ImageURL = node.FeaturedImage.URL
	}

	// Flatten the first variant's pricing. Price defaults to 0 when the
	// variant is missing or unparseable.
	if len(node.Variants.Edges) > 0 {
		variant := node.Variants.Edges[0].Node
		if price, err := strconv.ParseFloat(variant.Price, 64); err == nil {
			product.Price = price
		}
		if variant.CompareAtPrice != nil {
			if compareAt, err := strconv.ParseFloat(*variant.CompareAtPrice, 64); err == nil {
				product.CompareAtPrice = &compareAt
			}
		}
	}

	return product
}

// StripHTML flattens markup to plain text.
func StripHTML(html string) string {
	text := htmlTagPattern.ReplaceAllString(html, " ")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	return strings.Join(strings.Fields(text), " ")
}

func truncateTitle(title string, limit int) string {
	runes := []rune(title)
	if len(runes) <= limit {
		return title
	}
	return strings.TrimSpace(string(runes[:limit]))
}
