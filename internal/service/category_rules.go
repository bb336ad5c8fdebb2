package service

import (
	"strings"

	"storefront-service/internal/models"
)

// CategoryRule maps a provider category to a site category when any of its
// substrings occurs in the lowercased provider name.
type CategoryRule struct {
	Substrings []string
	Category   string
}

// CategoryRules is an ordered rule table; the first matching rule wins.
type CategoryRules struct {
	Rules   []CategoryRule
	Default string
}

// DefaultCategoryRules is the storefront's category table.
var DefaultCategoryRules = CategoryRules{
	Rules: []CategoryRule{
		{Substrings: []string{"accessor", "card", "tag"}, Category: models.CategoryAccessories},
		{Substrings: []string{"cater", "tray", "platter", "party"}, Category: models.CategoryCatering},
		{Substrings: []string{"cake", "cookie", "rum", "bite"}, Category: models.CategoryRumInfusedBites},
	},
	Default: models.CategoryRumInfusedBites,
}

// Classify returns exactly one site category for any provider category name.
func (r CategoryRules) Classify(providerName string) string {
	name := strings.ToLower(strings.TrimSpace(providerName))
	if name == "" {
		return r.Default
	}
	for _, rule := range r.Rules {
		for _, sub := range rule.Substrings {
			if sub != "" && strings.Contains(name, sub) {
				return rule.Category
			}
		}
	}
	return r.Default
}
