// Package validate checks schema definitions for structural and
// referential-integrity problems. Validation never fails on a broken
// schema; every problem becomes a finding so callers can render a full
// report in one pass.
package validate

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/skjelbred/schemakit/internal/schema"
)

// Severity classifies a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Rule identifiers, one per check.
const (
	RuleRelationshipEndpoint = "relationship-endpoint"
	RuleIndexColumn          = "index-column"
	RuleIndexName            = "index-name"
	RulePrimaryKey           = "primary-key"
	RuleEnumValues           = "enum-values"
	RuleEnumDefault          = "enum-default"
	RuleTargetNotIndexed     = "target-not-indexed"
	RuleNaming               = "naming"
	RuleUnknownType          = "unknown-type"
	RuleSeedData             = "seed-data"
	RuleOpaqueCheck          = "opaque-check"
)

// Finding is a single validation result. Column is empty for
// table-level and relationship-level findings.
type Finding struct {
	Severity Severity `json:"severity"`
	Rule     string   `json:"rule"`
	Table    string   `json:"table,omitempty"`
	Column   string   `json:"column,omitempty"`
	Message  string   `json:"message"`
}

// Result bundles findings with summary counts.
type Result struct {
	Findings []Finding `json:"findings"`
	Errors   int       `json:"errors"`
	Warnings int       `json:"warnings"`
}

// Valid reports whether the schema has no error-level findings.
// Warnings never block downstream operations.
func (r *Result) Valid() bool {
	return r.Errors == 0
}

var snakeCaseRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Validate runs every check against the schema and returns the
// collected findings. Checks run in a fixed order and never
// short-circuit, so a single pass reports everything.
func Validate(s *schema.Schema) *Result {
	v := &validator{schema: s}

	v.checkRelationshipEndpoints()
	v.checkIndexes()
	v.checkPrimaryKeys()
	v.checkEnums()
	v.checkRelationshipTargets()
	v.checkNaming()
	v.checkTypes()
	v.checkSeedData()
	v.checkOpaqueChecks()

	result := &Result{Findings: v.findings}
	for _, f := range v.findings {
		switch f.Severity {
		case SeverityError:
			result.Errors++
		case SeverityWarning:
			result.Warnings++
		}
	}
	return result
}

type validator struct {
	schema   *schema.Schema
	findings []Finding
}

func (v *validator) errorf(rule, table, column, format string, args ...any) {
	v.findings = append(v.findings, Finding{
		Severity: SeverityError,
		Rule:     rule,
		Table:    table,
		Column:   column,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (v *validator) warnf(rule, table, column, format string, args ...any) {
	v.findings = append(v.findings, Finding{
		Severity: SeverityWarning,
		Rule:     rule,
		Table:    table,
		Column:   column,
		Message:  fmt.Sprintf(format, args...),
	})
}

// resolveRef looks up a table.column endpoint, recording an error
// when either side is missing. Returns the table and column when both
// resolve.
func (v *validator) resolveRef(relName, ref string) (*schema.Table, *schema.Column) {
	table, column, ok := schema.SplitRef(ref)
	if !ok {
		v.errorf(RuleRelationshipEndpoint, "", "", "relationship %q: endpoint %q is not of the form table.column", relName, ref)
		return nil, nil
	}
	t := v.schema.Table(table)
	if t == nil {
		v.errorf(RuleRelationshipEndpoint, table, "", "relationship %q references unknown table %q", relName, table)
		return nil, nil
	}
	c := t.Column(column)
	if c == nil {
		v.errorf(RuleRelationshipEndpoint, table, column, "relationship %q references unknown column %q in table %q", relName, column, table)
		return t, nil
	}
	return t, c
}

func (v *validator) checkRelationshipEndpoints() {
	for _, rel := range v.schema.Relationships {
		v.resolveRef(rel.Name, rel.From)
		v.resolveRef(rel.Name, rel.To)
	}
}

func (v *validator) checkIndexes() {
	for _, t := range v.schema.Tables {
		seen := map[string]bool{}
		for _, idx := range t.Indexes {
			if seen[idx.Name] {
				v.errorf(RuleIndexName, t.Name, "", "duplicate index name %q", idx.Name)
			}
			seen[idx.Name] = true
			if len(idx.Columns) == 0 {
				v.errorf(RuleIndexColumn, t.Name, "", "index %q has no columns", idx.Name)
			}
			for _, col := range idx.Columns {
				if t.Column(col) == nil {
					v.errorf(RuleIndexColumn, t.Name, col, "index %q references unknown column %q", idx.Name, col)
				}
			}
		}
	}
}

func (v *validator) checkPrimaryKeys() {
	for _, t := range v.schema.Tables {
		pk := t.PrimaryKey()
		auto := t.AutoIncrementColumn()
		if auto != nil {
			if len(pk) > 1 {
				v.errorf(RulePrimaryKey, t.Name, auto.Name, "auto_increment column in composite primary key (%d key columns)", len(pk))
			}
			if !auto.PrimaryKey {
				v.errorf(RulePrimaryKey, t.Name, auto.Name, "auto_increment on a column that is not the primary key")
			}
			if schema.FamilyOf(auto.Type) != schema.FamilyInteger {
				v.errorf(RulePrimaryKey, t.Name, auto.Name, "auto_increment requires an integer type, got %s", auto.Type)
			}
		}
		for i := range t.Columns {
			c := &t.Columns[i]
			if c.PrimaryKey && c.Nullable {
				v.errorf(RulePrimaryKey, t.Name, c.Name, "primary key column cannot be nullable")
			}
		}
	}
}

func (v *validator) checkEnums() {
	for _, t := range v.schema.Tables {
		for i := range t.Columns {
			c := &t.Columns[i]
			if !c.IsEnum() {
				continue
			}
			if len(c.Values) == 0 {
				v.errorf(RuleEnumValues, t.Name, c.Name, "ENUM column has no values")
				continue
			}
			if !c.HasDefault || c.Default == nil {
				continue
			}
			def, ok := c.Default.(string)
			if !ok {
				v.errorf(RuleEnumDefault, t.Name, c.Name, "ENUM default %v is not a string", c.Default)
				continue
			}
			member := false
			for _, val := range c.Values {
				if val == def {
					member = true
					break
				}
			}
			if !member {
				v.errorf(RuleEnumDefault, t.Name, c.Name, "ENUM default %q is not one of the declared values", def)
			}
		}
	}
}

// checkRelationshipTargets warns when a relationship points at a
// column with no uniqueness or index, since lookups against it cannot
// use a key.
func (v *validator) checkRelationshipTargets() {
	for _, rel := range v.schema.Relationships {
		table, column, ok := schema.SplitRef(rel.To)
		if !ok {
			continue
		}
		t := v.schema.Table(table)
		if t == nil {
			continue
		}
		c := t.Column(column)
		if c == nil {
			continue
		}
		if c.PrimaryKey || c.Unique {
			continue
		}
		indexed := false
		for _, idx := range t.Indexes {
			if len(idx.Columns) > 0 && idx.Columns[0] == column {
				indexed = true
				break
			}
		}
		if !indexed {
			v.warnf(RuleTargetNotIndexed, table, column, "relationship %q target %s.%s is not a primary key, unique, or indexed", rel.Name, table, column)
		}
	}
}

func (v *validator) checkNaming() {
	for _, t := range v.schema.Tables {
		if !snakeCaseRe.MatchString(t.Name) {
			v.warnf(RuleNaming, t.Name, "", "table name %q is not snake_case", t.Name)
		}
		for i := range t.Columns {
			if !snakeCaseRe.MatchString(t.Columns[i].Name) {
				v.warnf(RuleNaming, t.Name, t.Columns[i].Name, "column name %q is not snake_case", t.Columns[i].Name)
			}
		}
	}
}

func (v *validator) checkTypes() {
	for _, t := range v.schema.Tables {
		for i := range t.Columns {
			c := &t.Columns[i]
			if !schema.KnownType(c.Type) {
				v.errorf(RuleUnknownType, t.Name, c.Name, "unknown type %q", c.Type)
			}
		}
	}
}

// checkSeedData verifies seed rows reference existing tables and
// columns, and that required columns are populated.
func (v *validator) checkSeedData() {
	tables := make([]string, 0, len(v.schema.SeedData))
	for name := range v.schema.SeedData {
		tables = append(tables, name)
	}
	sort.Strings(tables)

	for _, tableName := range tables {
		rows := v.schema.SeedData[tableName]
		t := v.schema.Table(tableName)
		if t == nil {
			v.errorf(RuleSeedData, tableName, "", "seed data references unknown table %q", tableName)
			continue
		}
		for i, row := range rows {
			for col := range row {
				if t.Column(col) == nil {
					v.errorf(RuleSeedData, tableName, col, "seed row %d references unknown column %q", i, col)
				}
			}
			for j := range t.Columns {
				c := &t.Columns[j]
				if c.Nullable || c.AutoIncrement || c.HasDefault {
					continue
				}
				if _, ok := row[c.Name]; !ok {
					v.errorf(RuleSeedData, tableName, c.Name, "seed row %d is missing required column %q", i, c.Name)
				}
			}
		}
	}
}

func (v *validator) checkOpaqueChecks() {
	for _, t := range v.schema.Tables {
		for i := range t.Columns {
			c := &t.Columns[i]
			if c.Check != "" {
				v.warnf(RuleOpaqueCheck, t.Name, c.Name, "CHECK expression %q was preserved but not interpreted", c.Check)
			}
		}
	}
}
