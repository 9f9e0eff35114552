package scorecard

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose(t *testing.T) {
	rec, err := Validate(validValues())
	require.NoError(t, err)

	date := time.Date(2025, time.January, 15, 18, 30, 0, 0, time.UTC)
	got := Compose(rec, "3", date)

	want := Card{
		CourtID:   "3",
		Title:     "MATCH RESULT",
		Court:     "COURT 3",
		Player:    Contestant{Seat: 1, Label: "Player", Name: "Alex", Score: "21"},
		Separator: "VS",
		Opponent:  Contestant{Seat: 2, Label: "Player", Name: "Sam", Score: "15"},
		Date:      "JAN 15, 2025",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Compose() mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, got, Compose(rec, "3", date), "same inputs compose the same card")
}

func TestCard_Text(t *testing.T) {
	rec, err := Validate(validValues())
	require.NoError(t, err)

	card := Compose(rec, "A-7", time.Date(2024, time.December, 3, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, []string{"MATCH RESULT", "COURT A-7", "Alex", "21", "VS", "Sam", "15", "DEC 3, 2024"}, card.Text())
}

func TestFormatDate(t *testing.T) {
	tests := map[string]time.Time{
		"JAN 15, 2025": time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
		"SEP 1, 2026":  time.Date(2026, time.September, 1, 23, 59, 0, 0, time.UTC),
		"MAY 31, 1999": time.Date(1999, time.May, 31, 0, 0, 0, 0, time.UTC),
	}
	for want, in := range tests {
		assert.Equal(t, want, FormatDate(in))
	}
}
