package rule

import (
	"fmt"

	"github.com/frahmantamala/finance-tracker/internal"
)

type DefaultCategory struct {
	Name string
	Type string
}

type DefaultRule struct {
	Name     string
	Keywords string
	Category string
	Priority int
}

var DefaultCategories = []DefaultCategory{
	{Name: "Groceries", Type: "expense"},
	{Name: "Restaurants & Dining", Type: "expense"},
	{Name: "Transportation", Type: "expense"},
	{Name: "Utilities", Type: "expense"},
	{Name: "Entertainment/Subscriptions", Type: "expense"},
	{Name: "Shopping/Retail", Type: "expense"},
	{Name: "Health & Pharmacy", Type: "expense"},
	{Name: "Housing", Type: "expense"},
	{Name: "Income", Type: "income"},
}

var DefaultRules = []DefaultRule{
	{Name: "Grocery Stores", Keywords: "whole foods, safeway, trader joes, kroger, publix, instacart, sprouts", Category: "Groceries", Priority: 10},
	{Name: "Supermarkets", Keywords: "walmart, target, costco, sam's club, market basket", Category: "Groceries", Priority: 9},
	{Name: "Fast Food", Keywords: "mcd, burger king, subway, taco bell, popeyes, chick-fil, chipotle", Category: "Restaurants & Dining", Priority: 10},
	{Name: "Restaurants", Keywords: "restaurant, cafe, pizzeria, dining", Category: "Restaurants & Dining", Priority: 8},
	{Name: "Ride Sharing", Keywords: "uber, lyft, taxify", Category: "Transportation", Priority: 10},
	{Name: "Gas & Fuel", Keywords: "shell, chevron, exxon, bp, speedway, sunoco, fuel", Category: "Transportation", Priority: 10},
	{Name: "Parking & Transit", Keywords: "parking, transit, amtrak, metro", Category: "Transportation", Priority: 8},
	{Name: "Internet & Phone", Keywords: "comcast, verizon, at&t, internet, phone bill, broadband", Category: "Utilities", Priority: 10},
	{Name: "Utilities", Keywords: "electric, water, gas, utility, city of", Category: "Utilities", Priority: 9},
	{Name: "Streaming Services", Keywords: "netflix, hulu, disney, prime video, spotify, youtube", Category: "Entertainment/Subscriptions", Priority: 10},
	{Name: "Entertainment", Keywords: "movie, concert, theater, steam, playstation, xbox, nintendo", Category: "Entertainment/Subscriptions", Priority: 8},
	{Name: "Online Retailers", Keywords: "amazon, ebay, etsy", Category: "Shopping/Retail", Priority: 10},
	{Name: "Electronics", Keywords: "best buy, apple store, electronics", Category: "Shopping/Retail", Priority: 9},
	{Name: "Pharmacy", Keywords: "cvs, walgreens, pharmacy, drugstore", Category: "Health & Pharmacy", Priority: 10},
	{Name: "Healthcare", Keywords: "doctor, hospital, medical, dental, clinic, health", Category: "Health & Pharmacy", Priority: 8},
	{Name: "Rent & Mortgage", Keywords: "rent, mortgage, landlord, lease", Category: "Housing", Priority: 10},
	{Name: "Salary", Keywords: "salary, paycheck, payroll, wages", Category: "Income", Priority: 10},
}

type SeedResult struct {
	CategoriesEnsured int `json:"categories_ensured"`
	RulesCreated      int `json:"rules_created"`
}

// EnsureDefaults creates the default system categories and rules that are
// missing. Existing rules with a default name are left as they are, so
// running it again changes nothing.
func (s *Service) EnsureDefaults() (*SeedResult, error) {
	categoryIDs := make(map[string]int64, len(DefaultCategories))
	for _, c := range DefaultCategories {
		id, err := s.categories.EnsureSystemCategory(c.Name, c.Type)
		if err != nil {
			s.logger.Error("failed to ensure default category", "name", c.Name, "error", err)
			return nil, internal.NewInternalError("failed to seed categories", err)
		}
		categoryIDs[c.Name] = id
	}

	result := &SeedResult{CategoriesEnsured: len(categoryIDs)}
	for _, d := range DefaultRules {
		existing, err := s.repo.GetByName(nil, d.Name)
		if err != nil {
			return nil, internal.NewInternalError("failed to check default rule", err)
		}
		if existing != nil {
			continue
		}

		categoryID, ok := categoryIDs[d.Category]
		if !ok {
			return nil, internal.NewInternalError(fmt.Sprintf("default rule %q references unknown category %q", d.Name, d.Category), nil)
		}
		data := ToDataModel(&Rule{
			Name:       d.Name,
			Keywords:   NormalizeKeywords(d.Keywords),
			CategoryID: categoryID,
			Priority:   d.Priority,
			IsActive:   true,
		})
		if err := s.repo.Create(data); err != nil {
			s.logger.Error("failed to create default rule", "name", d.Name, "error", err)
			return nil, internal.NewInternalError("failed to seed rules", err)
		}
		result.RulesCreated++
	}

	s.logger.Info("default rules ensured", "categories", result.CategoriesEnsured, "rules_created", result.RulesCreated)
	return result, nil
}
