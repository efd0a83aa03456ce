package models

// CollectionRule classifies products into a marketing collection. Rules are
// supplied per invocation by the caller; they are not persisted here.
type CollectionRule struct {
	Label      string          `json:"label"`
	MatchMode  string          `json:"match_mode"`
	Conditions []RuleCondition `json:"conditions"`
}

type RuleCondition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

const (
	MatchModeAll = "all"
	MatchModeAny = "any"
)
