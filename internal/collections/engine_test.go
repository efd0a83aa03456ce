package collections

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"promosync/internal/models"
)

func floatPtr(f float64) *float64 { return &f }

func saleProduct() *models.Product {
	return &models.Product{
		Title:       "Summer Sandals",
		Vendor:      "Acme Shoes",
		ProductType: "Footwear",
		Tags:        "Hot Deals, Clearance",
		Price:       39.99,
	}
}

func TestMatchModeAllRequiresEveryCondition(t *testing.T) {
	rule := models.CollectionRule{
		Label:     "Budget Sale",
		MatchMode: models.MatchModeAll,
		Conditions: []models.RuleCondition{
			{Field: "tag", Operator: "eq", Value: "sale"},
			{Field: "price", Operator: "lt", Value: "50"},
		},
	}

	both := &models.Product{Tags: "sale", Price: 40}
	onlyTag := &models.Product{Tags: "sale", Price: 60}
	onlyPrice := &models.Product{Tags: "new", Price: 40}

	assert.True(t, Matches(both, rule))
	assert.False(t, Matches(onlyTag, rule))
	assert.False(t, Matches(onlyPrice, rule))

	rule.MatchMode = models.MatchModeAny
	assert.True(t, Matches(both, rule))
	assert.True(t, Matches(onlyTag, rule))
	assert.True(t, Matches(onlyPrice, rule))
}

func TestVacuousRuleNeverMatches(t *testing.T) {
	rule := models.CollectionRule{Label: "Empty", MatchMode: models.MatchModeAll}
	assert.False(t, Matches(saleProduct(), rule))

	rule.MatchMode = models.MatchModeAny
	assert.False(t, Matches(saleProduct(), rule))
}

func TestTagNormalization(t *testing.T) {
	tests := []struct {
		name  string
		tags  string
		value string
		want  bool
	}{
		{"spaces and case ignored", "Hot Deals, Clearance", "hotdeals", true},
		{"exact token", "winter;sale", "sale", true},
		{"pipe delimiter", "new|featured", "featured", true},
		{"slash delimiter", "mens/womens", "womens", true},
		{"compound tag via flattened concatenation", "HotDeals2024", "hotdeals", true},
		{"absent token", "winter, sale", "summer", false},
		{"empty tags", "", "sale", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &models.Product{Tags: tt.tags}
			rule := models.CollectionRule{
				Label:      "X",
				MatchMode:  models.MatchModeAll,
				Conditions: []models.RuleCondition{{Field: "tag", Operator: "eq", Value: tt.value}},
			}
			assert.Equal(t, tt.want, Matches(p, rule))

			rule.Conditions[0].Operator = "neq"
			assert.Equal(t, !tt.want, Matches(p, rule))
		})
	}
}

func TestTextFieldOperators(t *testing.T) {
	p := saleProduct()

	tests := []struct {
		field    string
		operator string
		value    string
		want     bool
	}{
		{"title", "eq", "  summer sandals ", true},
		{"title", "eq", "winter boots", false},
		{"title", "contains", "sandal", true},
		{"title", "not_contains", "boot", true},
		{"title", "neq", "winter boots", true},
		{"vendor", "eq", "ACME SHOES", true},
		{"vendor", "contains", "acme", true},
		{"productType", "eq", "footwear", true},
		{"product_type", "eq", "footwear", true},
		{"productType", "not_contains", "foot", false},
	}

	for _, tt := range tests {
		rule := models.CollectionRule{
			Label:      "X",
			MatchMode:  models.MatchModeAll,
			Conditions: []models.RuleCondition{{Field: tt.field, Operator: tt.operator, Value: tt.value}},
		}
		assert.Equal(t, tt.want, Matches(p, rule), "%s %s %q", tt.field, tt.operator, tt.value)
	}
}

func TestPriceOperators(t *testing.T) {
	cheap := &models.Product{Price: 20}
	pricey := &models.Product{Price: 200}

	gt := models.CollectionRule{
		Label:      "Premium",
		MatchMode:  models.MatchModeAll,
		Conditions: []models.RuleCondition{{Field: "price", Operator: "gt", Value: "100"}},
	}
	assert.False(t, Matches(cheap, gt))
	assert.True(t, Matches(pricey, gt))

	lt := models.CollectionRule{
		Label:      "Budget",
		MatchMode:  models.MatchModeAll,
		Conditions: []models.RuleCondition{{Field: "price", Operator: "lt", Value: "100"}},
	}
	assert.True(t, Matches(cheap, lt))
	assert.False(t, Matches(pricey, lt))

	// Unparseable thresholds never match.
	bad := models.CollectionRule{
		Label:      "Broken",
		MatchMode:  models.MatchModeAll,
		Conditions: []models.RuleCondition{{Field: "price", Operator: "gt", Value: "cheap"}},
	}
	assert.False(t, Matches(pricey, bad))
}

func TestNotReducedOperator(t *testing.T) {
	rule := models.CollectionRule{
		Label:      "Full Price",
		MatchMode:  models.MatchModeAll,
		Conditions: []models.RuleCondition{{Field: "price", Operator: "not_reduced", Value: ""}},
	}

	noReference := &models.Product{Price: 100}
	assert.True(t, Matches(noReference, rule))

	discounted := &models.Product{Price: 80, CompareAtPrice: floatPtr(100)}
	assert.False(t, Matches(discounted, rule))

	// A reference price at or below the current price is not a discount.
	equal := &models.Product{Price: 100, CompareAtPrice: floatPtr(100)}
	assert.True(t, Matches(equal, rule))
}

func TestUnknownFieldOrOperatorIsSilentlyFalse(t *testing.T) {
	p := saleProduct()

	tests := []models.RuleCondition{
		{Field: "sku", Operator: "eq", Value: "x"},
		{Field: "title", Operator: "regex", Value: ".*"},
		{Field: "price", Operator: "eq", Value: "39.99"},
		{Field: "tag", Operator: "contains", Value: "sale"},
	}

	for _, condition := range tests {
		rule := models.CollectionRule{
			Label:      "X",
			MatchMode:  models.MatchModeAll,
			Conditions: []models.RuleCondition{condition},
		}
		assert.False(t, Matches(p, rule), "%+v", condition)
	}
}

func TestEvaluateReturnsLabelsInRuleOrder(t *testing.T) {
	p := saleProduct()

	rules := []models.CollectionRule{
		{Label: "Clearance", MatchMode: models.MatchModeAll, Conditions: []models.RuleCondition{
			{Field: "tag", Operator: "eq", Value: "clearance"},
		}},
		{Label: "Premium", MatchMode: models.MatchModeAll, Conditions: []models.RuleCondition{
			{Field: "price", Operator: "gt", Value: "100"},
		}},
		{Label: "Hot Deals", MatchMode: models.MatchModeAll, Conditions: []models.RuleCondition{
			{Field: "tag", Operator: "eq", Value: "hotdeals"},
		}},
	}

	assert.Equal(t, []string{"Clearance", "Hot Deals"}, Evaluate(p, rules))
	assert.Nil(t, Evaluate(&models.Product{Title: "Plain"}, rules))
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c", "d"}, SplitTags("a, b;c |d"))
	assert.Empty(t, SplitTags("  "))
}
