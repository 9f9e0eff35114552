package models

import (
	"strings"
)

// Field identifies one of the four inputs of the score entry form.
type Field string

const (
	PlayerName    Field = "playerName"
	PlayerScore   Field = "playerScore"
	OpponentName  Field = "opponentName"
	OpponentScore Field = "opponentScore"
)

// Fields lists the form inputs in the order they are shown.
var Fields = []Field{PlayerName, PlayerScore, OpponentName, OpponentScore}

func (f Field) Label() string {
	switch f {
	case PlayerName:
		return "Your Name"
	case PlayerScore:
		return "Your Score"
	case OpponentName:
		return "Opponent's Name"
	case OpponentScore:
		return "Opponent's Score"
	}
	return string(f)
}

func (f Field) Placeholder() string {
	switch f {
	case PlayerName:
		return "Enter your name"
	case OpponentName:
		return "Enter opponent's name"
	}
	return "0"
}

// Numeric reports whether the input hints numeric entry. The value is still
// validated as a plain string.
func (f Field) Numeric() bool {
	return f == PlayerScore || f == OpponentScore
}

func (f Field) InputType() string {
	if f.Numeric() {
		return "number"
	}
	return "text"
}

// RequiredMessage is shown next to the input when it was left empty.
func (f Field) RequiredMessage() string {
	switch f {
	case PlayerName:
		return "Player name is required"
	case PlayerScore:
		return "Player score is required"
	case OpponentName:
		return "Opponent name is required"
	case OpponentScore:
		return "Opponent score is required"
	}
	return string(f) + " is required"
}

// FormValues holds the raw form input as typed by the user.
type FormValues struct {
	PlayerName    string
	PlayerScore   string
	OpponentName  string
	OpponentScore string
}

func (v FormValues) Get(f Field) string {
	switch f {
	case PlayerName:
		return v.PlayerName
	case PlayerScore:
		return v.PlayerScore
	case OpponentName:
		return v.OpponentName
	case OpponentScore:
		return v.OpponentScore
	}
	return ""
}

// MatchScoreRecord is the validated result of a form submission. It is only
// built by scorecard.Validate and is never modified afterwards.
type MatchScoreRecord struct {
	playerName    string
	playerScore   string
	opponentName  string
	opponentScore string
}

// NewMatchScoreRecord trims the values and builds a record. Callers are
// expected to have validated v.
func NewMatchScoreRecord(v FormValues) MatchScoreRecord {
	return MatchScoreRecord{
		playerName:    strings.TrimSpace(v.PlayerName),
		playerScore:   strings.TrimSpace(v.PlayerScore),
		opponentName:  strings.TrimSpace(v.OpponentName),
		opponentScore: strings.TrimSpace(v.OpponentScore),
	}
}

func (r MatchScoreRecord) PlayerName() string    { return r.playerName }
func (r MatchScoreRecord) PlayerScore() string   { return r.playerScore }
func (r MatchScoreRecord) OpponentName() string  { return r.opponentName }
func (r MatchScoreRecord) OpponentScore() string { return r.opponentScore }

// Values returns the record as form values, used to prefill the form on edit.
func (r MatchScoreRecord) Values() FormValues {
	return FormValues{
		PlayerName:    r.playerName,
		PlayerScore:   r.playerScore,
		OpponentName:  r.opponentName,
		OpponentScore: r.opponentScore,
	}
}

// ValidationError reports a single form field that failed validation.
type ValidationError struct {
	Field   Field
	Message string
}

func (e *ValidationError) Error() string {
	return string(e.Field) + ": " + e.Message
}

// ValidationErrors collects the failures of one submission.
type ValidationErrors []*ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// Message returns the message for f, or "" when f passed.
func (errs ValidationErrors) Message(f Field) string {
	for _, e := range errs {
		if e.Field == f {
			return e.Message
		}
	}
	return ""
}

func (errs ValidationErrors) Fields() []Field {
	fields := make([]Field, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	return fields
}
