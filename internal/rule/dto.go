package rule

import (
	"fmt"
	"time"

	"github.com/frahmantamala/finance-tracker/internal"
	"github.com/frahmantamala/finance-tracker/internal/core/common/validation"
)

type CreateRuleDTO struct {
	Name       string `json:"name"`
	Keywords   string `json:"keywords"`
	CategoryID int64  `json:"category_id"`
	Priority   int    `json:"priority"`
	IsActive   *bool  `json:"is_active,omitempty"`
	Scope      Scope  `json:"scope,omitempty"`
}

func (d CreateRuleDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(100)
	v.Field("keywords", d.Keywords).Required().MaxLength(500).Custom(func(value interface{}) *internal.AppError {
		if len(NormalizeKeywords(value.(string))) == 0 {
			return internal.NewValidationFieldError("keywords", "keywords must contain at least one keyword", internal.ErrCodeValidationFailed)
		}
		return nil
	})
	v.Field("category_id", d.CategoryID).Required().MinInt(1, internal.ErrCodeInvalidCategory)
	v.Field("scope", string(d.Scope)).OneOf(internal.ErrCodeValidationFailed, string(ScopePersonal), string(ScopeSystem))
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (d CreateRuleDTO) active() bool {
	return d.IsActive == nil || *d.IsActive
}

func (d CreateRuleDTO) scope() Scope {
	if d.Scope == "" {
		return ScopePersonal
	}
	return d.Scope
}

// UpdateRuleDTO carries only the fields being changed.
type UpdateRuleDTO struct {
	Name       *string `json:"name,omitempty"`
	Keywords   *string `json:"keywords,omitempty"`
	CategoryID *int64  `json:"category_id,omitempty"`
	Priority   *int    `json:"priority,omitempty"`
	IsActive   *bool   `json:"is_active,omitempty"`
}

func (d UpdateRuleDTO) Validate() error {
	if d.Name != nil {
		if err := validation.ValidateRuleName(*d.Name); err != nil {
			return err
		}
	}
	if d.Keywords != nil {
		if err := validation.ValidateKeywords(*d.Keywords); err != nil {
			return err
		}
	}
	if d.CategoryID != nil && *d.CategoryID <= 0 {
		return internal.NewValidationFieldError("category_id", "category_id must be positive", internal.ErrCodeInvalidCategory)
	}
	return nil
}

type TestRuleDTO struct {
	Description string `json:"description"`
}

func (d TestRuleDTO) Validate() error {
	if err := validation.ValidateDescription(d.Description); err != nil {
		return err
	}
	return nil
}

type BulkImportDTO struct {
	Rules []CreateRuleDTO `json:"rules"`
}

type RuleResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Keywords     string    `json:"keywords"`
	CategoryID   int64     `json:"category_id"`
	CategoryName string    `json:"category_name,omitempty"`
	Priority     int       `json:"priority"`
	IsActive     bool      `json:"is_active"`
	Scope        Scope     `json:"scope"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type RulesResponse struct {
	Rules []RuleResponse `json:"rules"`
}

type MatchedRule struct {
	RuleID          int64    `json:"rule_id"`
	RuleName        string   `json:"rule_name"`
	CategoryID      int64    `json:"category_id"`
	CategoryName    string   `json:"category_name,omitempty"`
	Priority        int      `json:"priority"`
	Scope           Scope    `json:"scope"`
	MatchedKeywords []string `json:"matched_keywords"`
}

type TestResult struct {
	Description  string        `json:"description"`
	MatchedRules []MatchedRule `json:"matched_rules"`
	PrimaryMatch *MatchedRule  `json:"primary_match"`
}

type BulkImportResult struct {
	Imported int      `json:"imported"`
	Total    int      `json:"total"`
	Errors   []string `json:"errors,omitempty"`
}

func rowError(index int, format string, args ...interface{}) string {
	return fmt.Sprintf("Rule %d: %s", index, fmt.Sprintf(format, args...))
}
