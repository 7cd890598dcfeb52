package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mockmate/mockmate/internal/api/handlers"
	"github.com/mockmate/mockmate/internal/utils"
)

type stubOracle struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	answer  string
	err     error
}

func (s *stubOracle) Complete(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func (s *stubOracle) Close() error { return nil }

func newQuestionRouter(oracle *stubOracle) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handlers.NewQuestionHandler(oracle, nil)
	r.POST("/question/next", h.Next)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestNextQuestionHappyPath(t *testing.T) {
	oracle := &stubOracle{answer: "What trade-offs did you weigh in that design?"}
	r := newQuestionRouter(oracle)

	w := postJSON(t, r, "/question/next", gin.H{
		"jobTitle":       "Backend Engineer",
		"jobDescription": "Design and operate Go services.",
		"avatarType":     "medium",
		"language":       "en",
		"turns": []gin.H{
			{"role": "ai", "text": "Tell me about yourself."},
			{"role": "user", "text": "I build APIs in Go."},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.NextQuestionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, oracle.answer, resp.Question)
	require.Equal(t, 1, oracle.calls)
	require.Contains(t, oracle.prompts[0], "Interviewer: Tell me about yourself.")
	require.Contains(t, oracle.prompts[0], "Free plan rule")
}

func TestNextQuestionMissingFieldRejectedBeforeOracle(t *testing.T) {
	oracle := &stubOracle{answer: "unused"}
	r := newQuestionRouter(oracle)

	w := postJSON(t, r, "/question/next", gin.H{
		"jobTitle":   "Backend Engineer",
		"avatarType": "medium",
		"language":   "en",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Zero(t, oracle.calls, "validation failures must not reach the oracle")

	var apiErr handlers.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	require.Equal(t, utils.CodeInvalidArgument, apiErr.Code)
	require.False(t, apiErr.Retryable)
}

func TestNextQuestionBadAvatarTypeRejected(t *testing.T) {
	oracle := &stubOracle{answer: "unused"}
	r := newQuestionRouter(oracle)

	w := postJSON(t, r, "/question/next", gin.H{
		"jobTitle":       "Backend Engineer",
		"jobDescription": "Design and operate Go services.",
		"avatarType":     "impossible",
		"language":       "en",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Zero(t, oracle.calls)
}

func TestNextQuestionPremiumPlanAdvisory(t *testing.T) {
	oracle := &stubOracle{answer: "And how did the team react?"}
	r := newQuestionRouter(oracle)

	w := postJSON(t, r, "/question/next", gin.H{
		"jobTitle":       "Backend Engineer",
		"jobDescription": "Design and operate Go services.",
		"avatarType":     "hard",
		"language":       "en",
		"plan":           "premium",
	})

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, oracle.prompts[0], "Premium plan: You may ask follow-ups as needed.")
}

func TestNextQuestionOracleFailureIsRetryable(t *testing.T) {
	oracle := &stubOracle{err: errors.New("upstream exploded")}
	r := newQuestionRouter(oracle)

	w := postJSON(t, r, "/question/next", gin.H{
		"jobTitle":       "Backend Engineer",
		"jobDescription": "Design and operate Go services.",
		"avatarType":     "medium",
		"language":       "en",
	})

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var apiErr handlers.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	require.Equal(t, utils.CodeUnavailable, apiErr.Code)
	require.True(t, apiErr.Retryable)
	require.Equal(t, "could not get next question, please try again", apiErr.Message)
}
