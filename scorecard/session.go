package scorecard

import (
	"context"
	"errors"
	"time"

	"github.com/nilsimda/court-scorecard/models"
)

// State is the view state of a session.
type State int

const (
	Entering State = iota
	Reviewing
)

func (s State) String() string {
	switch s {
	case Entering:
		return "entering"
	case Reviewing:
		return "reviewing"
	}
	return "unknown"
}

// ErrNotEntering is returned by Submit while a card is being reviewed.
var ErrNotEntering = errors.New("scores can only be submitted while entering")

// Session is the entry/review flow of one user on one court. It is not safe
// for concurrent use; callers serialize access.
type Session struct {
	courtID string
	state   State
	form    models.FormValues
	errs    models.ValidationErrors
	record  *models.MatchScoreRecord
	now     func() time.Time
	loc     *time.Location
}

type SessionOption func(*Session)

// WithClock sets the clock used for the card date.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation shows the card date in loc instead of the clock's zone.
func WithLocation(loc *time.Location) SessionOption {
	return func(s *Session) {
		s.loc = loc
	}
}

func NewSession(courtID string, opts ...SessionOption) *Session {
	s := &Session{
		courtID: courtID,
		state:   Entering,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) CourtID() string { return s.courtID }

func (s *Session) State() State { return s.state }

// Form returns the values the entry form is prefilled with.
func (s *Session) Form() models.FormValues { return s.form }

// Errors returns the failures of the last rejected submit.
func (s *Session) Errors() models.ValidationErrors { return s.errs }

// Record returns the live record, if any.
func (s *Session) Record() (models.MatchScoreRecord, bool) {
	if s.record == nil {
		return models.MatchScoreRecord{}, false
	}
	return *s.record, true
}

// Submit validates v. On success the record replaces the previous one and the
// session moves to Reviewing. On failure the session stays in Entering with
// v retained and the returned models.ValidationErrors.
func (s *Session) Submit(v models.FormValues) error {
	if s.state != Entering {
		return ErrNotEntering
	}
	rec, err := Validate(v)
	if err != nil {
		s.form = v
		s.errs, _ = err.(models.ValidationErrors)
		return err
	}
	s.record = &rec
	s.form = rec.Values()
	s.errs = nil
	s.state = Reviewing
	return nil
}

// Edit returns to Entering with the form prefilled from the live record.
func (s *Session) Edit() {
	if s.state != Reviewing {
		return
	}
	if s.record != nil {
		s.form = s.record.Values()
	}
	s.errs = nil
	s.state = Entering
}

// Card composes the live record with the current date. It returns nil while
// the session is entering scores.
func (s *Session) Card() *Card {
	if s.state != Reviewing || s.record == nil {
		return nil
	}
	now := s.now()
	if s.loc != nil {
		now = now.In(s.loc)
	}
	c := Compose(*s.record, s.courtID, now)
	return &c
}

// Export rasterizes the current card. The session state is never changed.
func (s *Session) Export(ctx context.Context, e *Exporter) (*Image, error) {
	return e.Export(ctx, s.courtID, s.Card())
}
