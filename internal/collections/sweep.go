package collections

import (
	"sort"
	"strings"

	"promosync/internal/catalog"
	"promosync/internal/logger"
	"promosync/internal/models"
)

// sentinelTag is counted separately as a sanity check on unexpected
// clearance volume.
const sentinelTag = "clearance"

const clearanceLabel = "Clearance"

type SweepResult struct {
	Processed        int `json:"processed"`
	Updated          int `json:"updated"`
	WithTags         int `json:"products_with_tags"`
	WithSentinelTag  int `json:"products_with_sentinel_tag"`
	MatchedAnyRule   int `json:"products_matching_any_rule"`
	ClearanceMatches int `json:"clearance_matches"`
}

// Sweep re-derives every product's collection set from the current rules
// and persists only the deltas. Running it twice in a row with unchanged
// rules and products writes nothing on the second pass.
type Sweep struct {
	store    *catalog.Store
	pageSize int
	logger   *logger.Logger
}

func NewSweep(store *catalog.Store, pageSize int, logger *logger.Logger) *Sweep {
	return &Sweep{
		store:    store,
		pageSize: pageSize,
		logger:   logger,
	}
}

func (s *Sweep) Run(tenantID string, rules []models.CollectionRule) (*SweepResult, error) {
	result := &SweepResult{}

	var clearanceRule *models.CollectionRule
	for i := range rules {
		if rules[i].Label == clearanceLabel {
			clearanceRule = &rules[i]
			break
		}
	}

	type patch struct {
		id     string
		labels []string
	}

	offset := 0
	for {
		page, err := s.store.Paginate(tenantID, offset, s.pageSize)
		if err != nil {
			return result, err
		}
		if len(page) == 0 {
			break
		}

		// One page's worth of pending patches at a time; the batching
		// bounds memory, it does not provide atomicity.
		var pending []patch
		for i := range page {
			product := &page[i]
			result.Processed++

			if strings.TrimSpace(product.Tags) != "" {
				result.WithTags++
			}
			if strings.Contains(NormalizeToken(product.Tags), sentinelTag) {
				result.WithSentinelTag++
			}

			labels := Evaluate(product, rules)
			if len(labels) > 0 {
				result.MatchedAnyRule++
			}
			if clearanceRule != nil && Matches(product, *clearanceRule) {
				result.ClearanceMatches++
			}

			if !sameLabelSet(labels, product.Collections) {
				pending = append(pending, patch{id: product.ID, labels: labels})
			}
		}

		for _, p := range pending {
			if err := s.store.PatchCollections(p.id, p.labels); err != nil {
				return result, err
			}
			result.Updated++
		}

		if len(page) < s.pageSize {
			break
		}
		offset += s.pageSize
	}

	s.logger.Info("Classification sweep for tenant %s: processed=%d updated=%d matched=%d",
		tenantID, result.Processed, result.Updated, result.MatchedAnyRule)

	return result, nil
}

// sameLabelSet compares two label sets ignoring order and duplicates of
// representation (nil vs empty).
func sameLabelSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sortedA := append([]string(nil), a...)
	sortedB := append([]string(nil), b...)
	sort.Strings(sortedA)
	sort.Strings(sortedB)
	for i := range sortedA {
		if sortedA[i] != sortedB[i] {
			return false
		}
	}
	return true
}
