package email

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderItinerary(t *testing.T) {
	tm, err := NewTemplateManager()
	require.NoError(t, err)

	text, html, err := tm.RenderItinerary(ItineraryData{
		RouteName: "Rome <3",
		DateRange: "2026-11-01 to 2026-11-02",
		Days: []ItineraryDay{
			{Number: 1, Date: "2026-11-01", Stops: []ItineraryStop{
				{Position: 1, Name: "Colosseum", PlannedTime: "09:00"},
				{Position: 2, Name: "Pantheon", Address: "Piazza della Rotonda"},
			}},
			{Number: 2, Date: "2026-11-02"},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, text, "1. Colosseum at 09:00")
	assert.Contains(t, text, "2. Pantheon, Piazza della Rotonda")
	assert.Contains(t, text, "Free day.")

	assert.Contains(t, html, "Rome &lt;3", "html output is escaped")
	assert.Contains(t, html, "<strong>Pantheon</strong>")
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESV2SenderBuildsMessage(t *testing.T) {
	api := &fakeSES{}
	sender := &SESV2Sender{client: api, fromEmail: "trips@example.com", logger: log.New("test")}

	require.NoError(t, sender.SendEmail(context.Background(), "friend@example.com", "Rome", "plain", "<p>html</p>"))
	require.NotNil(t, api.input)
	assert.Equal(t, "trips@example.com", aws.ToString(api.input.FromEmailAddress))
	assert.Equal(t, []string{"friend@example.com"}, api.input.Destination.ToAddresses)
	assert.Equal(t, "plain", aws.ToString(api.input.Content.Simple.Body.Text.Data))

	api.err = errors.New("throttled")
	assert.ErrorIs(t, sender.SendEmail(context.Background(), "friend@example.com", "Rome", "plain", "html"), api.err)
}
