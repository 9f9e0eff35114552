package scorecard

import (
	"strings"

	"github.com/nilsimda/court-scorecard/models"
)

// Rule is a named check applied to one form field.
type Rule struct {
	Name    string
	Field   models.Field
	Check   func(string) bool
	Message string
}

// Apply returns nil when value passes, or the field-scoped failure.
func (r Rule) Apply(value string) *models.ValidationError {
	if r.Check(value) {
		return nil
	}
	return &models.ValidationError{Field: r.Field, Message: r.Message}
}

func nonEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}

func required(f models.Field) Rule {
	return Rule{
		Name:    string(f) + ".required",
		Field:   f,
		Check:   nonEmpty,
		Message: f.RequiredMessage(),
	}
}

// Rules holds one rule per form field. Scores are checked as strings only.
var Rules = []Rule{
	required(models.PlayerName),
	required(models.PlayerScore),
	required(models.OpponentName),
	required(models.OpponentScore),
}

// Validate applies every rule independently and builds the record when all
// of them pass. The returned error is a models.ValidationErrors.
func Validate(v models.FormValues) (models.MatchScoreRecord, error) {
	var errs models.ValidationErrors
	for _, rule := range Rules {
		if err := rule.Apply(v.Get(rule.Field)); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return models.MatchScoreRecord{}, errs
	}
	return models.NewMatchScoreRecord(v), nil
}
