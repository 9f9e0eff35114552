package components

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilsimda/court-scorecard/models"
	"github.com/nilsimda/court-scorecard/scorecard"
)

func render(t *testing.T, c templ.Component) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func testCard(t *testing.T) scorecard.Card {
	t.Helper()
	rec, err := scorecard.Validate(models.FormValues{
		PlayerName:    "Alex",
		PlayerScore:   "21",
		OpponentName:  "Sam",
		OpponentScore: "15",
	})
	require.NoError(t, err)
	return scorecard.Compose(rec, "3", time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC))
}

func TestEntryPage_Empty(t *testing.T) {
	doc := render(t, EntryPage("3", models.FormValues{}, nil))

	assert.Equal(t, "Input Score", doc.Find("h1").Text())
	assert.Equal(t, "Court 3 - Enter match results", doc.Find("p.description").Text())

	var labels []string
	doc.Find("label").Each(func(_ int, s *goquery.Selection) {
		labels = append(labels, s.Text())
	})
	assert.Equal(t, []string{"Your Name", "Your Score", "Opponent's Name", "Opponent's Score"}, labels)

	for _, f := range models.Fields {
		input := doc.Find("input#" + string(f))
		require.Equal(t, 1, input.Length(), f)
		assert.Equal(t, string(f), input.AttrOr("name", ""))
		assert.Equal(t, "", input.AttrOr("value", "missing"))
		assert.Equal(t, f.InputType(), input.AttrOr("type", ""))
	}
	assert.Equal(t, "0", doc.Find("input#playerScore").AttrOr("min", ""))
	assert.Equal(t, 0, doc.Find(".field-error").Length())
	assert.Equal(t, "Generate Scorecard", doc.Find("button[type=submit]").Text())
	assert.Equal(t, "submit", doc.Find("input[name=_action]").AttrOr("value", ""))
}

func TestEntryPage_ErrorsAndValues(t *testing.T) {
	form := models.FormValues{PlayerName: "Alex", PlayerScore: "21", OpponentName: "", OpponentScore: "15"}
	errs := models.ValidationErrors{{Field: models.OpponentName, Message: "Opponent name is required"}}

	doc := render(t, EntryPage("3", form, errs))

	assert.Equal(t, "Alex", doc.Find("input#playerName").AttrOr("value", ""))
	assert.Equal(t, "21", doc.Find("input#playerScore").AttrOr("value", ""))
	assert.Equal(t, "15", doc.Find("input#opponentScore").AttrOr("value", ""))

	msgs := doc.Find(".field-error")
	require.Equal(t, 1, msgs.Length())
	assert.Equal(t, "Opponent name is required", msgs.Text())
	assert.Equal(t, "opponentName", msgs.Closest(".field").AttrOr("data-field", ""))
}

func TestEntryPage_EscapesValues(t *testing.T) {
	doc := render(t, EntryPage(`"><script>`, models.FormValues{PlayerName: `<b>Alex</b>`}, nil))

	assert.Equal(t, 0, doc.Find("script").Length())
	assert.Equal(t, `<b>Alex</b>`, doc.Find("input#playerName").AttrOr("value", ""))
}

func TestReviewPage_ContentOrder(t *testing.T) {
	doc := render(t, ReviewPage(testCard(t), ""))

	var parts, text []string
	doc.Find("#scorecard [data-part]").Each(func(_ int, s *goquery.Selection) {
		parts = append(parts, s.AttrOr("data-part", ""))
		text = append(text, s.Text())
	})

	assert.Equal(t, []string{
		"title", "court", "player-name", "player-score", "separator", "opponent-name", "opponent-score", "date",
	}, parts)
	assert.Equal(t, testCard(t).Text(), text)
	assert.Equal(t, 0, doc.Find(".notice").Length())
}

func TestReviewPage_Actions(t *testing.T) {
	doc := render(t, ReviewPage(testCard(t), "Could not save image. Please try again."))

	var actions, buttons []string
	doc.Find(".actions form").Each(func(_ int, s *goquery.Selection) {
		actions = append(actions, s.Find("input[name=_action]").AttrOr("value", ""))
		buttons = append(buttons, s.Find("button").Text())
	})
	assert.Equal(t, []string{"edit", "export"}, actions)
	assert.Equal(t, []string{"Edit Score", "Save as Image"}, buttons)
	assert.Equal(t, "Could not save image. Please try again.", doc.Find(".notice").Text())
}

func TestLayout_Title(t *testing.T) {
	doc := render(t, ReviewPage(testCard(t), ""))
	assert.Equal(t, "Scorecard - COURT 3", doc.Find("title").Text())
	assert.Equal(t, "/assets/styles.css", doc.Find("link[rel=stylesheet]").AttrOr("href", ""))
}
