package scorecard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilsimda/court-scorecard/models"
)

var fixedNow = func() time.Time {
	return time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)
}

func TestSession_SubmitBlankField(t *testing.T) {
	for _, field := range models.Fields {
		t.Run(string(field), func(t *testing.T) {
			s := NewSession("1")
			v := validValues()
			switch field {
			case models.PlayerName:
				v.PlayerName = ""
			case models.PlayerScore:
				v.PlayerScore = ""
			case models.OpponentName:
				v.OpponentName = ""
			case models.OpponentScore:
				v.OpponentScore = ""
			}

			err := s.Submit(v)

			var verrs models.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, []models.Field{field}, verrs.Fields())
			assert.Equal(t, Entering, s.State())
			assert.Equal(t, v, s.Form(), "typed values are kept")
			assert.Equal(t, verrs, s.Errors())
			assert.Nil(t, s.Card())
			_, ok := s.Record()
			assert.False(t, ok)
		})
	}
}

func TestSession_SubmitValid(t *testing.T) {
	s := NewSession("3", WithClock(fixedNow))
	require.NoError(t, s.Submit(validValues()))

	assert.Equal(t, Reviewing, s.State())
	assert.Empty(t, s.Errors())

	card := s.Card()
	require.NotNil(t, card)
	assert.Equal(t, "COURT 3", card.Court)
	assert.Equal(t, "Alex", card.Player.Name)
	assert.Equal(t, "21", card.Player.Score)
	assert.Equal(t, "Sam", card.Opponent.Name)
	assert.Equal(t, "15", card.Opponent.Score)
	assert.Equal(t, "JAN 15, 2025", card.Date)
}

func TestSession_SubmitWhileReviewing(t *testing.T) {
	s := NewSession("3")
	require.NoError(t, s.Submit(validValues()))

	err := s.Submit(models.FormValues{PlayerName: "Jordan", PlayerScore: "1", OpponentName: "Kim", OpponentScore: "2"})
	assert.ErrorIs(t, err, ErrNotEntering)

	rec, ok := s.Record()
	require.True(t, ok)
	assert.Equal(t, "Alex", rec.PlayerName())
}

func TestSession_EditRoundTrip(t *testing.T) {
	s := NewSession("2")
	require.NoError(t, s.Submit(validValues()))

	s.Edit()

	assert.Equal(t, Entering, s.State())
	assert.Equal(t, validValues(), s.Form())
	assert.Nil(t, s.Card())
}

func TestSession_EditWhileEnteringIsNoop(t *testing.T) {
	s := NewSession("2")
	_ = s.Submit(models.FormValues{PlayerName: "Alex"})
	before := s.Form()

	s.Edit()

	assert.Equal(t, Entering, s.State())
	assert.Equal(t, before, s.Form())
	assert.NotEmpty(t, s.Errors())
}

func TestSession_ResubmitReplacesRecord(t *testing.T) {
	s := NewSession("4", WithClock(fixedNow))
	require.NoError(t, s.Submit(validValues()))
	s.Edit()

	v := s.Form()
	v.PlayerName = "Jordan"
	v.PlayerScore = "9"
	require.NoError(t, s.Submit(v))

	card := s.Card()
	require.NotNil(t, card)
	assert.Equal(t, "Jordan", card.Player.Name)
	assert.Equal(t, "9", card.Player.Score)
	assert.NotContains(t, card.Text(), "Alex")
	assert.Equal(t, "Sam", card.Opponent.Name)
}

func TestSession_ExportKeepsState(t *testing.T) {
	tests := []struct {
		name    string
		raster  *fakeRasterizer
		submit  bool
		wantErr error
		state   State
	}{
		{
			name:   "success",
			raster: &fakeRasterizer{data: []byte("png")},
			submit: true,
			state:  Reviewing,
		},
		{
			name:    "rasterizer failure",
			raster:  &fakeRasterizer{err: errBoom},
			submit:  true,
			wantErr: errBoom,
			state:   Reviewing,
		},
		{
			name:    "nothing rendered",
			raster:  &fakeRasterizer{data: []byte("png")},
			wantErr: ErrCardUnavailable,
			state:   Entering,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession("3", WithClock(fixedNow))
			if tt.submit {
				require.NoError(t, s.Submit(validValues()))
			}

			img, err := s.Export(context.Background(), NewExporter(tt.raster))
			assert.Equal(t, tt.state, s.State())

			if tt.wantErr != nil {
				var exportErr *ExportError
				require.True(t, errors.As(err, &exportErr))
				assert.Equal(t, "3", exportErr.CourtID)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, img)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "scorecard-court3.png", img.Filename)
			require.Len(t, tt.raster.cards, 1)
			assert.Equal(t, "JAN 15, 2025", tt.raster.cards[0].Date)
		})
	}
}

func TestSession_CardDateUsesLocation(t *testing.T) {
	lateNight := func() time.Time {
		return time.Date(2025, time.January, 15, 23, 30, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		loc  *time.Location
		want string
	}{
		{"clock zone", nil, "JAN 15, 2025"},
		{"east of clock", time.FixedZone("UTC+2", 2*60*60), "JAN 16, 2025"},
		{"west of clock", time.FixedZone("UTC-5", -5*60*60), "JAN 15, 2025"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession("1", WithClock(lateNight), WithLocation(tt.loc))
			require.NoError(t, s.Submit(validValues()))
			assert.Equal(t, tt.want, s.Card().Date)
		})
	}
}
