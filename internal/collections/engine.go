package collections

import (
	"regexp"
	"strconv"
	"strings"

	"promosync/internal/models"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]`)

// Matches reports whether a single product satisfies a classification
// rule. A rule with no conditions never matches. Unknown fields and
// operators evaluate to false rather than failing; malformed rules
// degrade classification accuracy, they do not crash a sweep.
func Matches(p *models.Product, rule models.CollectionRule) bool {
	if len(rule.Conditions) == 0 {
		return false
	}

	if rule.MatchMode == models.MatchModeAll {
		for _, condition := range rule.Conditions {
			if !matchCondition(p, condition) {
				return false
			}
		}
		return true
	}

	for _, condition := range rule.Conditions {
		if matchCondition(p, condition) {
			return true
		}
	}
	return false
}

// Evaluate returns the labels of every matching rule, in rule order.
func Evaluate(p *models.Product, rules []models.CollectionRule) []string {
	var labels []string
	for _, rule := range rules {
		if Matches(p, rule) {
			labels = append(labels, rule.Label)
		}
	}
	return labels
}

func matchCondition(p *models.Product, c models.RuleCondition) bool {
	switch c.Field {
	case "tag":
		return matchTag(p.Tags, c)
	case "title":
		return matchText(p.Title, c)
	case "vendor":
		return matchText(p.Vendor, c)
	case "productType", "product_type":
		return matchText(p.ProductType, c)
	case "price":
		return matchPrice(p, c)
	}
	return false
}

func matchTag(tags string, c models.RuleCondition) bool {
	target := NormalizeToken(c.Value)
	if target == "" {
		return false
	}

	found := false
	for _, tag := range SplitTags(tags) {
		if NormalizeToken(tag) == target {
			found = true
			break
		}
	}
	// Compound tags like "HotDeals2024" still match "hotdeals" through
	// the flattened concatenation.
	if !found && strings.Contains(NormalizeToken(tags), target) {
		found = true
	}

	switch c.Operator {
	case "eq":
		return found
	case "neq":
		return !found
	}
	return false
}

func matchText(value string, c models.RuleCondition) bool {
	have := strings.ToLower(strings.TrimSpace(value))
	want := strings.ToLower(strings.TrimSpace(c.Value))

	switch c.Operator {
	case "eq":
		return have == want
	case "neq":
		return have != want
	case "contains":
		return strings.Contains(have, want)
	case "not_contains":
		return !strings.Contains(have, want)
	}
	return false
}

func matchPrice(p *models.Product, c models.RuleCondition) bool {
	switch c.Operator {
	case "gt", "lt":
		threshold, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64)
		if err != nil {
			return false
		}
		if c.Operator == "gt" {
			return p.Price > threshold
		}
		return p.Price < threshold
	case "not_reduced":
		return p.CompareAtPrice == nil || *p.CompareAtPrice <= p.Price
	}
	return false
}

// NormalizeToken lowercases and strips everything non-alphanumeric.
func NormalizeToken(s string) string {
	return nonAlphanumeric.ReplaceAllString(strings.ToLower(s), "")
}

// SplitTags splits a free-text tag field on the delimiters merchants
// actually use.
func SplitTags(tags string) []string {
	parts := strings.FieldsFunc(tags, func(r rune) bool {
		return r == ',' || r == ';' || r == '|' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
