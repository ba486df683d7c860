package rule

import (
	"strings"
	"time"

	ruleDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/rule"
)

type Scope string

const (
	ScopeSystem   Scope = "system"
	ScopePersonal Scope = "personal"
)

const (
	PermissionAdmin             = "admin"
	PermissionManageSystemRules = "manage_system_rules"
)

// Rule assigns CategoryID to any description containing one of Keywords.
// Keywords are always trimmed, lower-cased and non-empty.
type Rule struct {
	ID         int64     `json:"id"`
	UserID     *int64    `json:"user_id,omitempty"`
	Name       string    `json:"name"`
	Keywords   []string  `json:"keywords"`
	CategoryID int64     `json:"category_id"`
	Priority   int       `json:"priority"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (r *Rule) Scope() Scope {
	if r.UserID == nil {
		return ScopeSystem
	}
	return ScopePersonal
}

func (r *Rule) IsSystem() bool {
	return r.UserID == nil
}

// MatchedKeywords returns the keywords found in description, in rule order.
func (r *Rule) MatchedKeywords(description string) []string {
	desc := strings.ToLower(description)
	var matched []string
	for _, kw := range r.Keywords {
		if kw != "" && strings.Contains(desc, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

func (r *Rule) Matches(description string) bool {
	desc := strings.ToLower(description)
	for _, kw := range r.Keywords {
		if kw != "" && strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}

// NormalizeKeywords splits a comma-separated keyword string, trimming and
// lower-casing each entry and dropping empty ones.
func NormalizeKeywords(raw string) []string {
	parts := strings.Split(raw, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		kw := strings.ToLower(strings.TrimSpace(p))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

func JoinKeywords(keywords []string) string {
	return strings.Join(keywords, ", ")
}

func ToDataModel(r *Rule) *ruleDatamodel.CategorizationRule {
	return &ruleDatamodel.CategorizationRule{
		ID:         r.ID,
		UserID:     r.UserID,
		Name:       r.Name,
		Keywords:   JoinKeywords(r.Keywords),
		CategoryID: r.CategoryID,
		Priority:   r.Priority,
		IsActive:   r.IsActive,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func FromDataModel(d *ruleDatamodel.CategorizationRule) *Rule {
	return &Rule{
		ID:         d.ID,
		UserID:     d.UserID,
		Name:       d.Name,
		Keywords:   NormalizeKeywords(d.Keywords),
		CategoryID: d.CategoryID,
		Priority:   d.Priority,
		IsActive:   d.IsActive,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func FromDataModels(ds []*ruleDatamodel.CategorizationRule) []*Rule {
	rules := make([]*Rule, 0, len(ds))
	for _, d := range ds {
		rules = append(rules, FromDataModel(d))
	}
	return rules
}
