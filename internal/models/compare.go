package models

import (
	"sort"

	"github.com/skjelbred/schemakit/internal/schema"
)

// TableDiff lists per-table column differences.
type TableDiff struct {
	Table          string   `json:"table"`
	MissingColumns []string `json:"missing_in_db,omitempty"`
	ExtraColumns   []string `json:"extra_in_db,omitempty"`
	TypeMismatches []string `json:"type_mismatches,omitempty"`
}

// DiffReport is the result of comparing model declarations against a
// schema. Mismatched type families are warnings, not errors, because
// static parsing cannot always resolve the declared type.
type DiffReport struct {
	MissingInDB []string    `json:"missing_in_db"`
	ExtraInDB   []string    `json:"extra_in_db"`
	TableDiffs  []TableDiff `json:"table_diffs,omitempty"`
	Warnings    []string    `json:"warnings,omitempty"`
}

// InSync reports whether models and schema describe the same tables
// and columns.
func (r *DiffReport) InSync() bool {
	return len(r.MissingInDB) == 0 && len(r.ExtraInDB) == 0 && len(r.TableDiffs) == 0
}

// Compare diffs model descriptors against a schema by exact name. No
// similarity matching: a renamed table shows up as one missing and one
// extra entry, never a rename.
func Compare(s *schema.Schema, descriptors []ModelDescriptor) *DiffReport {
	report := &DiffReport{
		MissingInDB: []string{},
		ExtraInDB:   []string{},
	}

	modelTables := map[string]*ModelDescriptor{}
	for i := range descriptors {
		modelTables[descriptors[i].TableName] = &descriptors[i]
	}

	dbTables := map[string]*schema.Table{}
	for i := range s.Tables {
		dbTables[s.Tables[i].Name] = &s.Tables[i]
	}

	for name := range modelTables {
		if _, ok := dbTables[name]; !ok {
			report.MissingInDB = append(report.MissingInDB, name)
		}
	}
	for name := range dbTables {
		if _, ok := modelTables[name]; !ok {
			report.ExtraInDB = append(report.ExtraInDB, name)
		}
	}
	sort.Strings(report.MissingInDB)
	sort.Strings(report.ExtraInDB)

	shared := make([]string, 0, len(modelTables))
	for name := range modelTables {
		if _, ok := dbTables[name]; ok {
			shared = append(shared, name)
		}
	}
	sort.Strings(shared)

	for _, name := range shared {
		diff := diffTable(dbTables[name], modelTables[name], report)
		if len(diff.MissingColumns) > 0 || len(diff.ExtraColumns) > 0 || len(diff.TypeMismatches) > 0 {
			report.TableDiffs = append(report.TableDiffs, diff)
		}
	}

	return report
}

func diffTable(t *schema.Table, m *ModelDescriptor, report *DiffReport) TableDiff {
	diff := TableDiff{Table: t.Name}

	dbCols := map[string]string{}
	for i := range t.Columns {
		dbCols[t.Columns[i].Name] = t.Columns[i].Type
	}

	modelCols := make([]string, 0, len(m.Columns))
	for name := range m.Columns {
		modelCols = append(modelCols, name)
	}
	sort.Strings(modelCols)

	for _, name := range modelCols {
		modelType := m.Columns[name]
		dbType, ok := dbCols[name]
		if !ok {
			diff.MissingColumns = append(diff.MissingColumns, name)
			continue
		}
		if modelType == UnknownType {
			report.Warnings = append(report.Warnings,
				"table "+t.Name+": column "+name+" has an unresolvable model type, skipping type check")
			continue
		}
		if !schema.Compatible(dbType, modelType) {
			diff.TypeMismatches = append(diff.TypeMismatches,
				name+": model "+modelType+" vs database "+dbType)
		}
	}

	for name := range dbCols {
		if _, ok := m.Columns[name]; !ok {
			diff.ExtraColumns = append(diff.ExtraColumns, name)
		}
	}
	sort.Strings(diff.ExtraColumns)

	return diff
}
