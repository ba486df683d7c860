package rule

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/frahmantamala/finance-tracker/internal"
)

// RuleFile is the on-disk rule format. Categories are referenced by name
// so files can move between databases.
type RuleFile struct {
	Rules []RuleFileEntry `yaml:"rules"`
}

type RuleFileEntry struct {
	Name     string `yaml:"name"`
	Keywords string `yaml:"keywords"`
	Category string `yaml:"category"`
	Priority int    `yaml:"priority"`
	Active   *bool  `yaml:"active,omitempty"`
}

func ParseRuleFile(data []byte) (*RuleFile, error) {
	var f RuleFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, internal.NewValidationError(fmt.Sprintf("invalid rule file: %v", err), internal.ErrCodeInvalidFile)
	}
	return &f, nil
}

func (f *RuleFile) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportYAML writes the rules of one scope in evaluation order. userID is
// ignored for the system scope.
func (s *Service) ExportYAML(userID int64, scope Scope) ([]byte, error) {
	var (
		rows []*Rule
		err  error
	)
	if scope == ScopeSystem {
		data, lerr := s.repo.ListSystem()
		rows, err = FromDataModels(data), lerr
	} else {
		data, lerr := s.repo.ListPersonal(userID)
		rows, err = FromDataModels(data), lerr
	}
	if err != nil {
		s.logger.Error("failed to load rules for export", "scope", scope, "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to export rules", err)
	}
	SortByPrecedence(rows)

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.CategoryID)
	}
	names, err := s.categoryNames(ids)
	if err != nil {
		return nil, err
	}

	file := RuleFile{Rules: make([]RuleFileEntry, 0, len(rows))}
	for _, r := range rows {
		active := r.IsActive
		file.Rules = append(file.Rules, RuleFileEntry{
			Name:     r.Name,
			Keywords: JoinKeywords(r.Keywords),
			Category: names[r.CategoryID],
			Priority: r.Priority,
			Active:   &active,
		})
	}

	out, err := file.Marshal()
	if err != nil {
		return nil, internal.NewInternalError("failed to encode rules", err)
	}
	s.logger.Info("rules exported", "scope", scope, "count", len(file.Rules))
	return out, nil
}

// ImportYAML creates the rules of a rule file in scope, resolving category
// names against the categories visible in that scope.
func (s *Service) ImportYAML(userID int64, userPermissions []string, scope Scope, data []byte) (*BulkImportResult, error) {
	file, err := ParseRuleFile(data)
	if err != nil {
		return nil, err
	}
	if scope == ScopeSystem && !canManageSystemRules(userPermissions) {
		return nil, ErrSystemRuleImmutable
	}

	owner := ownerFor(scope, userID)
	result := &BulkImportResult{Total: len(file.Rules)}
	rows := make([]importRow, 0, len(file.Rules))
	for i, entry := range file.Rules {
		id, found, err := s.categories.ResolveName(owner, entry.Category)
		if err != nil {
			return nil, internal.NewInternalError("failed to resolve category", err)
		}
		if !found {
			result.Errors = append(result.Errors, rowError(i, "category '%s' not found", entry.Category))
			continue
		}
		rows = append(rows, importRow{index: i, dto: CreateRuleDTO{
			Name:       entry.Name,
			Keywords:   entry.Keywords,
			CategoryID: id,
			Priority:   entry.Priority,
			IsActive:   entry.Active,
			Scope:      scope,
		}})
	}

	if err := s.importRows(userID, userPermissions, rows, result); err != nil {
		return nil, err
	}
	return result, nil
}
