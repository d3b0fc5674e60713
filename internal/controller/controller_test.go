package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"research-assistant-be/internal/dto"
	"research-assistant-be/internal/entity"
	"research-assistant-be/internal/pkg/logger"
	"research-assistant-be/internal/pkg/serverutils"
	"research-assistant-be/internal/service"
	"research-assistant-be/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "controller-secret"

// fakeResearch overrides only what the tests call; anything else panics.
type fakeResearch struct {
	service.IResearchService
	gotResearcher string
	gotQueries    []string
	gotDays       int
}

func (f *fakeResearch) StartSession(ctx context.Context, researcherID string, req *dto.StartSessionRequest) (*dto.SessionStatusResponse, error) {
	f.gotResearcher = researcherID
	return &dto.SessionStatusResponse{SessionId: "s1", ProjectId: req.ProjectId, Status: entity.SessionStatusActive}, nil
}

func (f *fakeResearch) ProcessQueries(ctx context.Context, researcherID, sessionID string, texts []string) (*dto.ProcessQueriesResponse, error) {
	f.gotQueries = texts
	return &dto.ProcessQueriesResponse{SessionId: sessionID, Accepted: len(texts)}, nil
}

func (f *fakeResearch) GetSessionStatus(ctx context.Context, researcherID, sessionID string) (*dto.SessionStatusResponse, error) {
	return nil, apperr.NotFound("GetSessionStatus", "session %s not found", sessionID)
}

func (f *fakeResearch) CleanupSessions(ctx context.Context, days int) (int, error) {
	f.gotDays = days
	return 2, nil
}

type fakeApprovals struct {
	service.IApprovalService
	gotReviewer string
}

func (f *fakeApprovals) ProcessReview(ctx context.Context, approvalID, reviewerID string, req *dto.ReviewRequest) (*dto.ApprovalResponse, error) {
	f.gotReviewer = reviewerID
	if approvalID == "done" {
		return nil, apperr.Conflict("Decide", "approval %s already decided", approvalID)
	}
	return &dto.ApprovalResponse{ApprovalRequest: &entity.ApprovalRequest{Id: approvalID, Status: entity.ApprovalStatus(req.Decision)}}, nil
}

type fakeAudit struct{}

func (fakeAudit) GetLogs(level string, limit, offset int) ([]logger.LogEntry, error) {
	return []logger.LogEntry{}, nil
}

func newTestApp(t *testing.T) (*fiber.App, *fakeResearch, *fakeApprovals) {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	research := &fakeResearch{}
	approvals := &fakeApprovals{}
	api := app.Group("/api")
	NewResearchController(research, 30).RegisterRoutes(api)
	NewApprovalController(approvals, fakeAudit{}).RegisterRoutes(api)
	return app, research, approvals
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	claims := jwt.MapClaims{"user_id": userID, "exp": time.Now().Add(time.Hour).Unix()}
	if role != "" {
		claims["role"] = role
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func do(t *testing.T, app *fiber.App, method, path, tok, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	out := map[string]interface{}{}
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &out))
	}
	return resp, out
}

func TestStartSessionUsesTokenSubject(t *testing.T) {
	app, research, _ := newTestApp(t)

	resp, body := do(t, app, "POST", "/api/research/v1/sessions", token(t, "r1", ""), `{"project_id":"p1","disease_focus":"asthma"}`)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "r1", research.gotResearcher)
	assert.Equal(t, "s1", body["data"].(map[string]interface{})["session_id"])
}

func TestStartSessionValidation(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, body := do(t, app, "POST", "/api/research/v1/sessions", token(t, "r1", ""), `{"project_id":"p1"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", body["kind"])
}

func TestResearchRoutesNeedToken(t *testing.T) {
	app, _, _ := newTestApp(t)
	resp, _ := do(t, app, "GET", "/api/research/v1/sessions/s1", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProcessQueriesAndNotFound(t *testing.T) {
	app, research, _ := newTestApp(t)
	tok := token(t, "r1", "")

	resp, _ := do(t, app, "POST", "/api/research/v1/sessions/s1/queries", tok, `{"queries":["What is the efficacy of metformin?","hi"]}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"What is the efficacy of metformin?", "hi"}, research.gotQueries)

	resp, body := do(t, app, "GET", "/api/research/v1/sessions/missing", tok, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body["kind"])
}

func TestReviewRequiresReviewerRole(t *testing.T) {
	app, _, approvals := newTestApp(t)

	resp, _ := do(t, app, "POST", "/api/approvals/v1/a1/review", token(t, "r1", ""), `{"decision":"approved"}`)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body := do(t, app, "POST", "/api/approvals/v1/a1/review", token(t, "rev-1", serverutils.RoleReviewer), `{"decision":"approved"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "rev-1", approvals.gotReviewer)
	assert.Equal(t, "approved", body["data"].(map[string]interface{})["status"])

	resp, _ = do(t, app, "POST", "/api/approvals/v1/done/review", token(t, "rev-1", serverutils.RoleReviewer), `{"decision":"rejected"}`)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, _ = do(t, app, "POST", "/api/approvals/v1/a1/review", token(t, "rev-1", serverutils.RoleReviewer), `{"decision":"maybe"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCleanupDefaultsToConfiguredDays(t *testing.T) {
	app, research, _ := newTestApp(t)
	tok := token(t, "rev-1", serverutils.RoleReviewer)

	resp, body := do(t, app, "POST", "/api/maintenance/v1/cleanup", tok, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 30, research.gotDays)
	assert.Equal(t, float64(2), body["data"].(map[string]interface{})["deleted"])

	resp, _ = do(t, app, "POST", "/api/maintenance/v1/cleanup", tok, `{"days":0}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, research.gotDays)

	resp, _ = do(t, app, "POST", "/api/maintenance/v1/cleanup", tok, `{"days":-3}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
