package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/ai"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/repositories"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/services"
	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixedDiagnoser struct {
	result ai.Result
	err    error
}

func (f fixedDiagnoser) Diagnose(context.Context, string) (*ai.Diagnosis, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ai.Diagnosis{Result: f.result, Model: "stub", Raw: "{}"}, nil
}

var cold = ai.Result{Disease: "Common Cold", Probability: "85%", Advice: "Rest and hydrate", Medicines: "Paracetamol, Cetirizine"}

func newTestApp(t *testing.T, requireAuth bool, diagnoser ai.Diagnoser) *fiber.App {
	t.Helper()
	return newTestAppWithStorage(t, requireAuth, diagnoser, nil)
}

func newTestAppWithStorage(t *testing.T, requireAuth bool, diagnoser ai.Diagnoser, limiterStorage fiber.Storage) *fiber.App {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:   "test-secret",
		JWTExpiry:   time.Hour,
		BcryptCost:  bcrypt.MinCost,
		RequireAuth: requireAuth,
	}
	store := repositories.NewMemoryStore()

	app := fiber.New()
	Setup(app, cfg, limiterStorage,
		handlers.NewAuthHandler(services.NewAuthService(store.Users(), cfg)),
		handlers.NewDiagnosisHandler(services.NewDiagnosisService(store.Diagnoses(), diagnoser), requireAuth),
		handlers.NewHealthHandler(store),
	)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func registerAndLogin(t *testing.T, app *fiber.App, email string) dto.LoginResponse {
	t.Helper()
	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/register",
		dto.RegisterRequest{Username: "asha", Email: email, Password: "pa55word"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/login",
		dto.LoginRequest{Email: email, Password: "pa55word"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login dto.LoginResponse
	require.NoError(t, json.Unmarshal(body, &login))
	assert.Equal(t, login.Token, resp.Header.Get("auth-token"))
	return login
}

func TestRegister_DuplicateEmail(t *testing.T) {
	app := newTestApp(t, true, fixedDiagnoser{result: cold})

	req := dto.RegisterRequest{Username: "asha", Email: "asha@example.com", Password: "pw"}
	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/register", req, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var reg map[string]string
	require.NoError(t, json.Unmarshal(body, &reg))
	assert.NotEmpty(t, reg["user"])

	resp, body = doJSON(t, app, http.MethodPost, "/api/auth/register", req, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errResp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, string(apperr.KindDuplicateEmail), errResp.Kind)
	assert.Equal(t, "Email already exists", errResp.Error)
}

func TestLogin_WrongPassword(t *testing.T) {
	app := newTestApp(t, true, fixedDiagnoser{result: cold})
	registerAndLogin(t, app, "asha@example.com")

	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/login",
		dto.LoginRequest{Email: "asha@example.com", Password: "nope"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("auth-token"))
	var errResp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, string(apperr.KindInvalidCredentials), errResp.Kind)
}

func TestAnalyzeAndHistory(t *testing.T) {
	app := newTestApp(t, true, fixedDiagnoser{result: cold})
	login := registerAndLogin(t, app, "asha@example.com")
	auth := map[string]string{"Authorization": "Bearer " + login.Token}

	resp, body := doJSON(t, app, http.MethodPost, "/api/analyze",
		dto.AnalyzeRequest{UserID: login.UserID, Symptoms: "cough and sneezing"}, auth)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var got dto.AnalyzeResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, dto.AnalyzeResponse{Disease: cold.Disease, Probability: cold.Probability, Advice: cold.Advice, Medicines: cold.Medicines}, got)

	// legacy header is accepted too
	resp, body = doJSON(t, app, http.MethodGet, "/api/analyze/history/"+login.UserID, nil,
		map[string]string{"auth-token": login.Token})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var history []models.Diagnosis
	require.NoError(t, json.Unmarshal(body, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "Common Cold", history[0].PredictedDisease)
	assert.Equal(t, "cough and sneezing", history[0].Symptoms)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(body, &raw))
	for _, key := range []string{"_id", "userId", "symptoms", "predictedDisease", "confidenceScore", "advice", "medicines", "date"} {
		assert.Contains(t, raw[0], key)
	}
	assert.NotContains(t, raw[0], "RawResponse")
}

func TestHistory_EmptyIsArray(t *testing.T) {
	app := newTestApp(t, false, fixedDiagnoser{result: cold})

	resp, body := doJSON(t, app, http.MethodGet, "/api/analyze/history/u1", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", string(body))
}

func TestAnalyze_RequiresToken(t *testing.T) {
	app := newTestApp(t, true, fixedDiagnoser{result: cold})

	resp, _ := doJSON(t, app, http.MethodPost, "/api/analyze",
		dto.AnalyzeRequest{UserID: "u1", Symptoms: "cough"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAnalyze_ForbidsOtherUsersID(t *testing.T) {
	app := newTestApp(t, true, fixedDiagnoser{result: cold})
	login := registerAndLogin(t, app, "asha@example.com")

	resp, body := doJSON(t, app, http.MethodPost, "/api/analyze",
		dto.AnalyzeRequest{UserID: "someone-else", Symptoms: "cough"},
		map[string]string{"Authorization": "Bearer " + login.Token})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	var errResp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, string(apperr.KindForbidden), errResp.Kind)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/analyze/history/someone-else", nil,
		map[string]string{"Authorization": "Bearer " + login.Token})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAnalyze_MissingInputIsClientError(t *testing.T) {
	app := newTestApp(t, false, fixedDiagnoser{result: cold})

	resp, body := doJSON(t, app, http.MethodPost, "/api/analyze", dto.AnalyzeRequest{UserID: "u1"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errResp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "Missing userId or symptoms", errResp.Error)
	assert.Equal(t, string(apperr.KindValidation), errResp.Kind)
}

func TestAnalyze_AIFailureHidesInternalDetail(t *testing.T) {
	aiErr := apperr.Wrap(apperr.KindAIResponse, "invalid AI response", errors.New("unexpected end of JSON input"))
	app := newTestApp(t, false, fixedDiagnoser{err: aiErr})

	resp, body := doJSON(t, app, http.MethodPost, "/api/analyze", dto.AnalyzeRequest{UserID: "u1", Symptoms: "fever"}, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var errResp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, string(apperr.KindAIResponse), errResp.Kind)
	assert.NotContains(t, errResp.Error, "unexpected end of JSON input")
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, true, fixedDiagnoser{result: cold})

	resp, body := doJSON(t, app, http.MethodGet, "/api/health", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health dto.HealthResponse
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "ok", health.DB)
}

func TestAuthRateLimit_SharedRedisStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	app := newTestAppWithStorage(t, true, fixedDiagnoser{result: cold}, middleware.NewRedisStorage(rdb))
	login := dto.LoginRequest{Email: "nobody@example.com", Password: "pw"}

	for i := 0; i < 10; i++ {
		resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/login", login, nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, "request %d", i+1)
	}

	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/login", login, nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	var limiterKeys int
	for _, k := range mr.Keys() {
		if strings.HasPrefix(k, "medai:limiter:") {
			limiterKeys++
		}
	}
	assert.Positive(t, limiterKeys)
}

func TestAnalyze_PaddedUserIDMatchesToken(t *testing.T) {
	app := newTestApp(t, true, fixedDiagnoser{result: cold})
	login := registerAndLogin(t, app, "asha@example.com")
	auth := map[string]string{"Authorization": "Bearer " + login.Token}

	resp, body := doJSON(t, app, http.MethodPost, "/api/analyze",
		dto.AnalyzeRequest{UserID: login.UserID + " ", Symptoms: "cough"}, auth)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = doJSON(t, app, http.MethodGet, "/api/analyze/history/"+login.UserID, nil, auth)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var history []models.Diagnosis
	require.NoError(t, json.Unmarshal(body, &history))
	require.Len(t, history, 1)
	assert.Equal(t, login.UserID, history[0].UserID)
}

func TestAnalyze_SymptomsLimitCountsCharacters(t *testing.T) {
	app := newTestApp(t, false, fixedDiagnoser{result: cold})

	// 3 bytes per rune: 3000 runes is 9000 bytes but under the 4000 character cap.
	hindi := strings.Repeat("बु", 1500)
	resp, body := doJSON(t, app, http.MethodPost, "/api/analyze", dto.AnalyzeRequest{UserID: "u1", Symptoms: hindi}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, _ = doJSON(t, app, http.MethodPost, "/api/analyze",
		dto.AnalyzeRequest{UserID: "u1", Symptoms: strings.Repeat("ब", 4001)}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
