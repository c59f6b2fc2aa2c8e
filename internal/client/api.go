package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/models"
)

const legacyTokenHeader = "auth-token"

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	Status  int
	Kind    apperr.Kind
	Message string
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s (%s, status %d)", e.Message, e.Kind, e.Status)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// APIClient calls the medai HTTP API. It is safe for sequential use; set the
// token once after login.
type APIClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		// Analyze waits on the AI provider, which can take a while.
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

// SetToken makes every following request carry "Authorization: Bearer token".
func (c *APIClient) SetToken(token string) {
	c.token = token
}

func (c *APIClient) Register(ctx context.Context, username, email, password string) (string, error) {
	var resp dto.RegisterResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/register",
		dto.RegisterRequest{Username: username, Email: email, Password: password}, &resp, nil)
	if err != nil {
		return "", err
	}
	return resp.User.String(), nil
}

// Login returns the issued session. The token is read from the body and, for
// older servers that only set it there, from the auth-token header.
func (c *APIClient) Login(ctx context.Context, email, password string) (*Session, error) {
	var resp dto.LoginResponse
	var header http.Header
	err := c.do(ctx, http.MethodPost, "/api/auth/login",
		dto.LoginRequest{Email: email, Password: password}, &resp, &header)
	if err != nil {
		return nil, err
	}

	token := resp.Token
	if token == "" {
		token = header.Get(legacyTokenHeader)
	}
	if token == "" {
		return nil, fmt.Errorf("login response carried no token")
	}
	return &Session{Token: token, UserID: resp.UserID, Username: resp.Username, Email: email}, nil
}

func (c *APIClient) Analyze(ctx context.Context, userID, symptoms string) (*dto.AnalyzeResponse, error) {
	var resp dto.AnalyzeResponse
	err := c.do(ctx, http.MethodPost, "/api/analyze",
		dto.AnalyzeRequest{UserID: userID, Symptoms: symptoms}, &resp, nil)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// History returns the user's diagnoses, newest first as ordered by the server.
func (c *APIClient) History(ctx context.Context, userID string) ([]models.Diagnosis, error) {
	var resp []models.Diagnosis
	if err := c.do(ctx, http.MethodGet, "/api/analyze/history/"+url.PathEscape(userID), nil, &resp, nil); err != nil {
		return nil, err
	}
	if resp == nil {
		resp = []models.Diagnosis{}
	}
	return resp, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out any, header *http.Header) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, data)
	}
	if header != nil {
		*header = resp.Header
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, data []byte) error {
	apiErr := &APIError{Status: status}

	var body dto.ErrorResponse
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Kind = apperr.Kind(body.Kind)
	} else {
		apiErr.Message = http.StatusText(status)
	}
	if apiErr.Kind == "" && status == http.StatusUnauthorized {
		apiErr.Kind = apperr.KindUnauthorized
	}
	return apiErr
}
