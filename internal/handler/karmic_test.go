package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/service"
	"github.com/eternal-ai/api/internal/testing/fixtures"
	"github.com/eternal-ai/api/internal/testing/helpers"
)

func TestKarmic_BirthThenReport(t *testing.T) {
	api := newTestAPI(t)
	user := api.factory.CreateUser(t, fixtures.WithBirth("1990-08-15", "06:30", "+05:30", ""))

	rec := api.request(t, http.MethodPost, "/v1/reports/karmic/birth", user).
		WithBody(model.KarmicBirthRequest{BirthPlace: "Bengaluru, India"}).
		Do(api.router)
	helpers.AssertStatus(t, rec, http.StatusOK)

	var onboarding model.LifePredictorOnboarding
	helpers.DecodeData(t, rec, &onboarding)
	assert.Equal(t, "Test", onboarding.FirstName)
	assert.InDelta(t, 12.97, onboarding.Lat, 0.001)

	rec = api.request(t, http.MethodPost, "/v1/reports/karmic", user).
		WithBody(model.KarmicReportRequest{LifeArea: "career"}).
		Do(api.router)
	helpers.AssertStatus(t, rec, http.StatusCreated)

	rec = api.request(t, http.MethodGet, "/v1/reports/karmic", user).Do(api.router)
	helpers.AssertStatus(t, rec, http.StatusOK)

	var report model.KarmicReport
	helpers.DecodeData(t, rec, &report)
	assert.Equal(t, "career", report.LifeArea)
	assert.True(t, report.AIReportSuccess)
	assert.Equal(t, "<svg>d1</svg>", report.ChartImages.RasiD1)
}

func TestKarmic_BirthNeedsProfile(t *testing.T) {
	api := newTestAPI(t)
	user := api.factory.CreateUser(t)

	rec := api.request(t, http.MethodPost, "/v1/reports/karmic/birth", user).
		WithBody(model.KarmicBirthRequest{BirthPlace: "Pune"}).
		Do(api.router)

	helpers.AssertProblemDetails(t, rec, http.StatusUnprocessableEntity, model.ErrCodePreconditionMissing)
}

func TestKarmic_ReportNeedsBirthStep(t *testing.T) {
	api := newTestAPI(t)
	user := api.factory.CreateUser(t)

	rec := api.request(t, http.MethodPost, "/v1/reports/karmic", user).
		WithBody(model.KarmicReportRequest{LifeArea: "love"}).
		Do(api.router)

	helpers.AssertProblemDetails(t, rec, http.StatusUnprocessableEntity, model.ErrCodePreconditionMissing)
}

func TestKarmic_GetMissing(t *testing.T) {
	api := newTestAPI(t)
	user := api.factory.CreateUser(t)

	rec := api.request(t, http.MethodGet, "/v1/reports/karmic", user).Do(api.router)

	helpers.AssertProblemDetails(t, rec, http.StatusNotFound, model.ErrCodeNotFound)
}

func TestKarmicChat_FreeQuestionsRunOut(t *testing.T) {
	api := newTestAPI(t)
	user := api.factory.CreateUser(t)
	api.factory.CreateKarmicReport(t, user, true)

	rec := api.request(t, http.MethodGet, "/v1/reports/karmic/chat", user).Do(api.router)
	helpers.AssertStatus(t, rec, http.StatusOK)

	var chat model.KarmicChatView
	helpers.DecodeData(t, rec, &chat)
	require.Len(t, chat.Messages, 1)
	assert.Equal(t, service.KarmicFreeQuestions, chat.QuestionsRemaining)

	for i := range service.KarmicFreeQuestions {
		rec = api.request(t, http.MethodPost, "/v1/reports/karmic/chat", user).
			WithBody(model.KarmicQuestionRequest{Question: "What is my lesson?"}).
			Do(api.router)
		helpers.AssertStatus(t, rec, http.StatusOK)
		helpers.DecodeData(t, rec, &chat)
		assert.Equal(t, service.KarmicFreeQuestions-i-1, chat.QuestionsRemaining)
	}
	assert.Len(t, chat.Messages, 1+2*service.KarmicFreeQuestions)

	rec = api.request(t, http.MethodPost, "/v1/reports/karmic/chat", user).
		WithBody(model.KarmicQuestionRequest{Question: "One more?"}).
		Do(api.router)
	problem := helpers.AssertProblemDetails(t, rec, http.StatusTooManyRequests, model.ErrCodeQuotaExhausted)
	require.NotNil(t, problem.Limit)
	assert.Equal(t, service.KarmicFreeQuestions, *problem.Limit)
	assert.Equal(t, service.KarmicFreeQuestions, api.llm.Calls())
}
