package report

import (
	"fmt"
	"io"

	"github.com/skjelbred/schemakit/internal/materialize"
	"github.com/skjelbred/schemakit/internal/models"
	"github.com/skjelbred/schemakit/internal/validate"
)

// WriteValidation renders validation findings grouped by severity.
func WriteValidation(w io.Writer, result *validate.Result) {
	if len(result.Findings) == 0 {
		_, _ = fmt.Fprintln(w, "Schema is valid: no findings.")
		return
	}

	for _, f := range result.Findings {
		loc := f.Table
		if f.Column != "" {
			loc += "." + f.Column
		}
		if loc != "" {
			_, _ = fmt.Fprintf(w, "%s [%s] %s: %s\n", f.Severity, f.Rule, loc, f.Message)
		} else {
			_, _ = fmt.Fprintf(w, "%s [%s] %s\n", f.Severity, f.Rule, f.Message)
		}
	}
	_, _ = fmt.Fprintf(w, "\n%d error(s), %d warning(s)\n", result.Errors, result.Warnings)
}

// WriteMaterialization renders per-statement outcomes, failures first
// in full, then a one-line summary.
func WriteMaterialization(w io.Writer, r *materialize.Report) {
	for _, o := range r.Outcomes {
		if o.OK() {
			continue
		}
		if o.SQL != "" {
			_, _ = fmt.Fprintf(w, "statement %d failed: %s\n    %s\n", o.Index, o.Err, o.SQL)
		} else {
			_, _ = fmt.Fprintf(w, "statement %d failed: %s\n", o.Index, o.Err)
		}
	}
	_, _ = fmt.Fprintf(w, "%d statement(s) applied, %d failed; %d table(s) created, %d row(s) inserted\n",
		r.Applied, r.Failed, r.TablesCreated, r.RowsInserted)
}

// WriteDiff renders a model comparison report.
func WriteDiff(w io.Writer, r *models.DiffReport) {
	if r.InSync() {
		_, _ = fmt.Fprintln(w, "Models and database are in sync.")
	}

	if len(r.MissingInDB) > 0 {
		_, _ = fmt.Fprintln(w, "Tables missing in database:")
		for _, name := range r.MissingInDB {
			_, _ = fmt.Fprintf(w, "  - %s\n", name)
		}
	}
	if len(r.ExtraInDB) > 0 {
		_, _ = fmt.Fprintln(w, "Tables in database without a model:")
		for _, name := range r.ExtraInDB {
			_, _ = fmt.Fprintf(w, "  - %s\n", name)
		}
	}
	for _, diff := range r.TableDiffs {
		_, _ = fmt.Fprintf(w, "Table %s:\n", diff.Table)
		for _, col := range diff.MissingColumns {
			_, _ = fmt.Fprintf(w, "  missing in database: %s\n", col)
		}
		for _, col := range diff.ExtraColumns {
			_, _ = fmt.Fprintf(w, "  extra in database: %s\n", col)
		}
		for _, mismatch := range diff.TypeMismatches {
			_, _ = fmt.Fprintf(w, "  type mismatch: %s\n", mismatch)
		}
	}
	for _, warning := range r.Warnings {
		_, _ = fmt.Fprintf(w, "warning: %s\n", warning)
	}
}
