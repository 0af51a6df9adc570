package view

import (
	"fmt"

	"github.com/gastos-dev/gastos/internal/model"
)

// ValidationError describes one row breaking a table invariant.
type ValidationError struct {
	Row         int
	Rule        string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("row %d [%s]: %s", e.Row, e.Rule, e.Description)
}

// LabelChecker tests whether a label belongs to the configured set.
type LabelChecker interface {
	Contains(label string) bool
}

// Validate re-checks the table invariants before rows are exported.
// Unclassified rows must carry model.UnclassifiedLabel.
func Validate(rows []Row, labels LabelChecker) []ValidationError {
	var errs []ValidationError
	for i, r := range rows {
		if !r.Amount.IsNegative() {
			errs = append(errs, ValidationError{
				Row:         i,
				Rule:        "debit",
				Description: fmt.Sprintf("amount %s is not negative", r.Amount.StringFixed(2)),
			})
		}

		switch {
		case r.Unclassified:
			if r.Category != model.UnclassifiedLabel {
				errs = append(errs, ValidationError{
					Row:         i,
					Rule:        "label",
					Description: fmt.Sprintf("unclassified row labelled %q", r.Category),
				})
			}
		case !labels.Contains(r.Category):
			errs = append(errs, ValidationError{
				Row:         i,
				Rule:        "label",
				Description: fmt.Sprintf("label %q is not in the category set", r.Category),
			})
		}

		if !r.AbsoluteAmount.Equal(r.SignedAmount.Abs()) {
			errs = append(errs, ValidationError{
				Row:  i,
				Rule: "absolute",
				Description: fmt.Sprintf("absolute amount %s != |%s|",
					r.AbsoluteAmount.StringFixed(2), r.SignedAmount.StringFixed(2)),
			})
		}
	}
	return errs
}
