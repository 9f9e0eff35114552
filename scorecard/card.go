package scorecard

import (
	"strings"
	"time"

	"github.com/nilsimda/court-scorecard/models"
)

const (
	cardTitle  = "MATCH RESULT"
	separator  = "VS"
	dateLayout = "Jan 2, 2006"
)

// Contestant is one side of the card.
type Contestant struct {
	Seat  int
	Label string
	Name  string
	Score string
}

// Card is the composed content of a scorecard, shared by the HTML view and
// the rasterizer.
type Card struct {
	CourtID   string
	Title     string
	Court     string
	Player    Contestant
	Separator string
	Opponent  Contestant
	Date      string
}

// Compose builds the card for a record. It has no side effects.
func Compose(rec models.MatchScoreRecord, courtID string, date time.Time) Card {
	return Card{
		CourtID: courtID,
		Title:   cardTitle,
		Court:   "COURT " + courtID,
		Player: Contestant{
			Seat:  1,
			Label: "Player",
			Name:  rec.PlayerName(),
			Score: rec.PlayerScore(),
		},
		Separator: separator,
		Opponent: Contestant{
			Seat:  2,
			Label: "Player",
			Name:  rec.OpponentName(),
			Score: rec.OpponentScore(),
		},
		Date: FormatDate(date),
	}
}

// FormatDate renders dates as "JAN 15, 2025".
func FormatDate(t time.Time) string {
	return strings.ToUpper(t.Format(dateLayout))
}

// Text returns the card's visible text in display order.
func (c Card) Text() []string {
	return []string{
		c.Title,
		c.Court,
		c.Player.Name,
		c.Player.Score,
		c.Separator,
		c.Opponent.Name,
		c.Opponent.Score,
		c.Date,
	}
}
