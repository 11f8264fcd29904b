package processor_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/isometry/calendly-webhook/internal/handler/processor"
	"github.com/isometry/calendly-webhook/internal/models"
	"github.com/isometry/calendly-webhook/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProcessor struct {
	name  string
	calls *[]string
	err   error
}

func (p *recordingProcessor) SetLogger(*slog.Logger) {}

func (p *recordingProcessor) Process(context.Context, *processor.Bus) error {
	*p.calls = append(*p.calls, p.name)
	return p.err
}

func TestProcess_StopsAtFirstError(t *testing.T) {
	var calls []string
	errStop := errors.New("stop")

	err := processor.Process(context.Background(), &processor.Bus{},
		&recordingProcessor{name: "a", calls: &calls},
		&recordingProcessor{name: "b", calls: &calls, err: errStop},
		&recordingProcessor{name: "c", calls: &calls})
	assert.ErrorIs(t, err, errStop)
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestSettingsPreProcessor(t *testing.T) {
	testCases := []struct {
		Name           string
		Provider       settings.Provider
		ExpectedStatus int
		ExpectedError  error
	}{
		{
			Name:     "enabled",
			Provider: settings.Static{Enabled: true, Secret: "k"},
		},
		{
			Name:           "disabled",
			Provider:       settings.Static{},
			ExpectedStatus: http.StatusServiceUnavailable,
			ExpectedError:  processor.ErrIntegrationDisabled,
		},
		{
			Name:           "unset_secret",
			Provider:       settings.Static{Enabled: true},
			ExpectedStatus: http.StatusInternalServerError,
			ExpectedError:  settings.ErrSecretUnset,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			bus := &processor.Bus{}
			err := processor.NewSettingsPreProcessor(tc.Provider).Process(context.Background(), bus)
			if tc.ExpectedError != nil {
				assert.ErrorIs(t, err, tc.ExpectedError)
				assert.Equal(t, tc.ExpectedStatus, bus.Response.StatusCode)
				assert.Nil(t, bus.Settings)
				return
			}
			require.NoError(t, err)
			assert.True(t, bus.Settings.Enabled)
		})
	}
}

func TestPayloadDecoderPreProcessor(t *testing.T) {
	testCases := []struct {
		Name           string
		Body           string
		ExpectedStatus int
		ExpectedEvent  *models.Event
	}{
		{
			Name: "valid",
			Body: `{"event":"invitee.created","payload":{"email":"a@x.com","name":"Jane","questions_and_answers":[{"question":"Q","answer":"A"}]}}`,
			ExpectedEvent: &models.Event{
				Event: "invitee.created",
				Payload: models.EventPayload{
					Email:               "a@x.com",
					Name:                "Jane",
					QuestionsAndAnswers: []models.QuestionAndAnswer{{Question: "Q", Answer: "A"}},
				},
			},
		},
		{
			Name:          "missing_payload",
			Body:          `{}`,
			ExpectedEvent: &models.Event{},
		},
		{
			Name:           "syntax_error",
			Body:           `{"payload"`,
			ExpectedStatus: http.StatusBadRequest,
		},
		{
			Name:           "type_error",
			Body:           `{"payload":{"questions_and_answers":{}}}`,
			ExpectedStatus: http.StatusUnprocessableEntity,
		},
		{
			Name:           "invalid_email",
			Body:           `{"payload":{"email":"jane"}}`,
			ExpectedStatus: http.StatusUnprocessableEntity,
		},
	}

	p := processor.NewPayloadDecoderPreProcessor(validator.New(validator.WithRequiredStructEnabled()))
	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			bus := &processor.Bus{Body: []byte(tc.Body)}
			err := p.Process(context.Background(), bus)
			if tc.ExpectedEvent == nil {
				assert.ErrorIs(t, err, processor.ErrPayloadDecode)
				assert.Equal(t, tc.ExpectedStatus, bus.Response.StatusCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.ExpectedEvent, bus.Event)
		})
	}
}

func TestPayloadDecoderPreProcessor_ValidationMessage(t *testing.T) {
	bus := &processor.Bus{Body: []byte(`{"payload":{"email":"jane"}}`)}
	err := processor.NewPayloadDecoderPreProcessor(validator.New()).Process(context.Background(), bus)
	require.Error(t, err)
	assert.Equal(t, "Payload.Email is invalid", bus.Response.Body)
}
