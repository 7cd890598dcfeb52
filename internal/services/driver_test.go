package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mockmate/mockmate/internal/models"
	"github.com/mockmate/mockmate/internal/services"
	"github.com/mockmate/mockmate/internal/utils"
)

// ---------------------------------------------------------------------------
// fakes
// ---------------------------------------------------------------------------

type fakeInterviews struct {
	mu   sync.Mutex
	byID map[string]*models.Interview
}

func newFakeInterviews() *fakeInterviews {
	return &fakeInterviews{byID: map[string]*models.Interview{}}
}

func (f *fakeInterviews) Create(ctx context.Context, userID string, in services.CreateInterviewInput) (*models.Interview, error) {
	return nil, errors.New("not used in driver tests")
}

func (f *fakeInterviews) Get(ctx context.Context, interviewID string) (*models.Interview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	iv, ok := f.byID[interviewID]
	if !ok {
		return nil, utils.E(utils.CodeNotFound, "fake", "interview not found", nil)
	}
	cp := *iv
	return &cp, nil
}

func (f *fakeInterviews) ListByUser(ctx context.Context, userID string) ([]models.Interview, error) {
	return nil, nil
}

func (f *fakeInterviews) End(ctx context.Context, interviewID string, status models.InterviewStatus, durationSeconds int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	iv, ok := f.byID[interviewID]
	if !ok {
		return utils.ErrNotFound
	}
	iv.Status = status
	iv.DurationSeconds = durationSeconds
	now := time.Now().UTC()
	iv.EndedAt = &now
	return nil
}

func (f *fakeInterviews) SetScore(ctx context.Context, interviewID string, score int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if iv, ok := f.byID[interviewID]; ok {
		iv.Score = score
	}
	return nil
}

func (f *fakeInterviews) status(id string) models.InterviewStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id].Status
}

func (f *fakeInterviews) duration(id string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id].DurationSeconds
}

type fakeTurns struct {
	mu        sync.Mutex
	rows      []models.Turn
	appendErr error
	seq       int
}

func (f *fakeTurns) Append(ctx context.Context, userID, interviewID string, role models.TurnRole, text string, embedding []float32, metadataJSON []byte) (*models.Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return nil, utils.E(utils.CodeInternal, "fake", "append failed", f.appendErr)
	}
	f.seq++
	row := models.Turn{
		ID:          fmt.Sprintf("turn-%d", f.seq),
		UserID:      userID,
		InterviewID: interviewID,
		Role:        role,
		Text:        text,
		Timestamp:   time.Unix(int64(f.seq), 0).UTC(),
	}
	f.rows = append(f.rows, row)
	return &row, nil
}

func (f *fakeTurns) ListByInterview(ctx context.Context, interviewID string) ([]models.Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Turn
	for _, r := range f.rows {
		if r.InterviewID == interviewID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeTurns) Recent(ctx context.Context, interviewID string, n int) ([]models.Turn, error) {
	all, _ := f.ListByInterview(ctx, interviewID)
	if n > 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

func (f *fakeTurns) roles(interviewID string) []models.TurnRole {
	all, _ := f.ListByInterview(context.Background(), interviewID)
	out := make([]models.TurnRole, 0, len(all))
	for _, r := range all {
		out = append(out, r.Role)
	}
	return out
}

type fakeOracle struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	next    []string // scripted questions, popped in order
	err     error
	hook    func() // runs inside Complete, before returning
}

func (f *fakeOracle) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	err := f.err
	var out string
	if len(f.next) > 0 {
		out = f.next[0]
		f.next = f.next[1:]
	} else {
		out = "Describe a challenging project you worked on."
	}
	hook := f.hook
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return "", err
	}
	return out, nil
}

func (f *fakeOracle) Close() error { return nil }

func (f *fakeOracle) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeOracle) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

type fakeQueue struct {
	mu  sync.Mutex
	ids []string
}

func (f *fakeQueue) Enqueue(ctx context.Context, interviewID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, interviewID)
	return nil
}

func (f *fakeQueue) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ids)
}

// ---------------------------------------------------------------------------
// harness
// ---------------------------------------------------------------------------

type harness struct {
	driver     *services.Driver
	interviews *fakeInterviews
	turns      *fakeTurns
	oracle     *fakeOracle
	queue      *fakeQueue
	id         string
}

func newHarness(t *testing.T, plan models.Plan, avatarType, language string) *harness {
	t.Helper()

	ivs := newFakeInterviews()
	id := "iv-" + string(plan) + "-" + avatarType
	ivs.byID[id] = &models.Interview{
		InterviewID:    id,
		UserID:         "user-1",
		JobTitle:       "Backend Engineer",
		JobDescription: "Design and operate Go services.",
		AvatarType:     avatarType,
		Language:       language,
		Plan:           plan,
		Status:         models.StatusInProgress,
		CreatedAt:      time.Now().UTC(),
	}

	turns := &fakeTurns{}
	oracle := &fakeOracle{}
	queue := &fakeQueue{}

	return &harness{
		driver:     services.NewDriver(ivs, turns, oracle, queue, nil),
		interviews: ivs,
		turns:      turns,
		oracle:     oracle,
		queue:      queue,
		id:         id,
	}
}

func (h *harness) mustStart(t *testing.T) string {
	t.Helper()
	q, err := h.driver.Start(context.Background(), h.id)
	require.NoError(t, err)
	return q
}

func (h *harness) answerAndAdvance(t *testing.T, answer string) (string, bool) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.driver.SubmitAnswer(ctx, h.id, answer))
	q, done, err := h.driver.Advance(ctx, h.id)
	require.NoError(t, err)
	return q, done
}

// ---------------------------------------------------------------------------
// start / answer
// ---------------------------------------------------------------------------

func TestStartEmitsCanonicalOpener(t *testing.T) {
	h := newHarness(t, models.PlanFree, "easy", "fr")

	q := h.mustStart(t)
	require.Equal(t, "Parlez-moi de vous.", q)
	require.Equal(t, []models.TurnRole{models.RoleAI}, h.turns.roles(h.id))
	require.Zero(t, h.oracle.callCount(), "turn 0 must not hit the oracle")

	state, err := h.driver.State(context.Background(), h.id)
	require.NoError(t, err)
	require.Equal(t, services.StateAwaitingAnswer, state)
}

func TestStartTwiceConflicts(t *testing.T) {
	h := newHarness(t, models.PlanFree, "easy", "en")
	h.mustStart(t)

	_, err := h.driver.Start(context.Background(), h.id)
	require.True(t, utils.IsCode(err, utils.CodeConflict))
}

func TestSubmitAnswerPersistsUserTurn(t *testing.T) {
	h := newHarness(t, models.PlanFree, "easy", "en")
	h.mustStart(t)

	require.NoError(t, h.driver.SubmitAnswer(context.Background(), h.id, "I build APIs in Go."))
	require.Equal(t, []models.TurnRole{models.RoleAI, models.RoleUser}, h.turns.roles(h.id))
}

func TestSubmitAnswerEmptyIsSkip(t *testing.T) {
	h := newHarness(t, models.PlanFree, "easy", "en")
	h.mustStart(t)

	require.NoError(t, h.driver.SubmitAnswer(context.Background(), h.id, "   \n\t"))
	// nothing persisted for the skip
	require.Equal(t, []models.TurnRole{models.RoleAI}, h.turns.roles(h.id))

	// but the loop still moves on to the next question
	q, done, err := h.driver.Advance(context.Background(), h.id)
	require.NoError(t, err)
	require.False(t, done)
	require.NotEmpty(t, q)
	require.Equal(t, []models.TurnRole{models.RoleAI, models.RoleAI}, h.turns.roles(h.id))
}

func TestSubmitAnswerWithoutQuestionConflicts(t *testing.T) {
	h := newHarness(t, models.PlanFree, "easy", "en")
	h.mustStart(t)
	require.NoError(t, h.driver.SubmitAnswer(context.Background(), h.id, "first answer"))

	err := h.driver.SubmitAnswer(context.Background(), h.id, "second answer before a question")
	require.True(t, utils.IsCode(err, utils.CodeConflict))
}

// ---------------------------------------------------------------------------
// advance
// ---------------------------------------------------------------------------

func TestAdvanceAppendsOracleQuestion(t *testing.T) {
	h := newHarness(t, models.PlanFree, "easy", "en")
	h.mustStart(t)

	q, done := h.answerAndAdvance(t, "I led a migration to Go.")
	require.False(t, done)
	require.Equal(t, "Describe a challenging project you worked on.", q)
	require.Equal(t, 1, h.oracle.callCount())
	require.Equal(t,
		[]models.TurnRole{models.RoleAI, models.RoleUser, models.RoleAI},
		h.turns.roles(h.id))
	require.Contains(t, h.oracle.lastPrompt(), "Free plan rule")
}

func TestAdvanceBeforeAnswerConflicts(t *testing.T) {
	h := newHarness(t, models.PlanFree, "easy", "en")
	h.mustStart(t)

	_, _, err := h.driver.Advance(context.Background(), h.id)
	require.True(t, utils.IsCode(err, utils.CodeConflict))
	require.Zero(t, h.oracle.callCount())
}

func TestFollowUpBudgetReflectedInPrompt(t *testing.T) {
	h := newHarness(t, models.PlanFree, "easy", "en")
	h.mustStart(t)

	// three consecutive probing questions burn through the budget of 2
	h.oracle.next = []string{
		"Can you elaborate on that last point?",
		"You mentioned a migration. Can you explain the hardest part?",
		"Could you clarify what your own role was?",
	}

	h.answerAndAdvance(t, "answer one")
	require.Contains(t, h.oracle.lastPrompt(), "(currently 0/2)")

	h.answerAndAdvance(t, "answer two")
	require.Contains(t, h.oracle.lastPrompt(), "(currently 1/2)")

	h.answerAndAdvance(t, "answer three")
	require.Contains(t, h.oracle.lastPrompt(), "(currently 2/2)")

	// fourth advance: budget exhausted, the oracle is told to change topic
	h.answerAndAdvance(t, "answer four")
	prompt := h.oracle.lastPrompt()
	require.Contains(t, prompt, "(currently 3/2)")
	require.Contains(t, prompt, "MUST ask a NEW main interview question")
}

func TestPremiumPromptAllowsFollowUps(t *testing.T) {
	h := newHarness(t, models.PlanPremium, "hard", "en")
	h.mustStart(t)

	h.answerAndAdvance(t, "premium answer")
	require.Contains(t, h.oracle.lastPrompt(), "Premium plan: You may ask follow-ups as needed.")
}

func TestQuestionBudgetCompletesInterview(t *testing.T) {
	h := newHarness(t, models.PlanFree, "easy", "en")
	h.mustStart(t) // question 1 of 5

	for i := 0; i < 4; i++ {
		_, done := h.answerAndAdvance(t, "answer")
		require.False(t, done)
	}

	// budget of 5 questions is spent; the next advance completes instead
	require.NoError(t, h.driver.SubmitAnswer(context.Background(), h.id, "final answer"))
	q, done, err := h.driver.Advance(context.Background(), h.id)
	require.NoError(t, err)
	require.True(t, done)
	require.Empty(t, q)

	require.Equal(t, models.StatusCompleted, h.interviews.status(h.id))
	require.Equal(t, 1, h.queue.count())
	require.Equal(t, 4, h.oracle.callCount(), "the completing advance must not call the oracle")
}

// ---------------------------------------------------------------------------
// errors stay recoverable
// ---------------------------------------------------------------------------

func TestAdvanceOracleFailureIsRetryable(t *testing.T) {
	h := newHarness(t, models.PlanFree, "easy", "en")
	h.mustStart(t)
	require.NoError(t, h.driver.SubmitAnswer(context.Background(), h.id, "an answer"))

	h.oracle.err = errors.New("upstream exploded")
	_, _, err := h.driver.Advance(context.Background(), h.id)
	require.Error(t, err)
	require.True(t, utils.Retryable(err))

	// the answer turn is intact and a retry succeeds without duplicates
	h.oracle.err = nil
	q, done, err := h.driver.Advance(context.Background(), h.id)
	require.NoError(t, err)
	require.False(t, done)
	require.NotEmpty(t, q)
	require.Equal(t,
		[]models.TurnRole{models.RoleAI, models.RoleUser, models.RoleAI},
		h.turns.roles(h.id))
}

func TestAdvanceStoreFailureKeepsState(t *testing.T) {
	h := newHarness(t, models.PlanFree, "easy", "en")
	h.mustStart(t)
	require.NoError(t, h.driver.SubmitAnswer(context.Background(), h.id, "an answer"))

	h.turns.appendErr = errors.New("disk on fire")
	_, _, err := h.driver.Advance(context.Background(), h.id)
	require.Error(t, err)
	require.True(t, utils.IsCode(err, utils.CodeInternal))

	h.turns.appendErr = nil
	_, done, err := h.driver.Advance(context.Background(), h.id)
	require.NoError(t, err)
	require.False(t, done)
}

// ---------------------------------------------------------------------------
// time budget / terminal states
// ---------------------------------------------------------------------------

func TestTickForcesCompletionAtBudget(t *testing.T) {
	h := newHarness(t, models.PlanFree, "easy", "en") // 300s budget
	h.mustStart(t)

	completed, err := h.driver.Tick(context.Background(), h.id, 299)
	require.NoError(t, err)
	require.False(t, completed)

	completed, err = h.driver.Tick(context.Background(), h.id, 1)
	require.NoError(t, err)
	require.True(t, completed)

	require.Equal(t, models.StatusCompleted, h.interviews.status(h.id))
	require.EqualValues(t, 300, h.interviews.duration(h.id))

	// everything after the deadline is stale
	err = h.driver.SubmitAnswer(context.Background(), h.id, "too late")
	require.True(t, utils.IsCode(err, utils.CodeStaleSession))
	_, _, err = h.driver.Advance(context.Background(), h.id)
	require.True(t, utils.IsCode(err, utils.CodeStaleSession))

	// repeated ticks are no-ops
	completed, err = h.driver.Tick(context.Background(), h.id, 10)
	require.NoError(t, err)
	require.True(t, completed)
	require.Equal(t, 1, h.queue.count())
}

func TestAdvanceLateOracleResultDiscarded(t *testing.T) {
	h := newHarness(t, models.PlanFree, "easy", "en")
	h.mustStart(t)
	require.NoError(t, h.driver.SubmitAnswer(context.Background(), h.id, "an answer"))

	// the time budget expires while the oracle call is in flight
	h.oracle.hook = func() {
		_, err := h.driver.Tick(context.Background(), h.id, 300)
		require.NoError(t, err)
	}

	_, _, err := h.driver.Advance(context.Background(), h.id)
	require.True(t, utils.IsCode(err, utils.CodeStaleSession))

	// the late question never reached the transcript
	require.Equal(t,
		[]models.TurnRole{models.RoleAI, models.RoleUser},
		h.turns.roles(h.id))
	require.Equal(t, models.StatusCompleted, h.interviews.status(h.id))
}

func TestCompleteIsIdempotent(t *testing.T) {
	h := newHarness(t, models.PlanFree, "easy", "en")
	h.mustStart(t)

	status, err := h.driver.Complete(context.Background(), h.id, 123)
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, status)
	require.EqualValues(t, 123, h.interviews.duration(h.id))
	require.Equal(t, 1, h.queue.count())

	// second call reports the same terminal state, no second report job
	status, err = h.driver.Complete(context.Background(), h.id, 999)
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, status)
	require.EqualValues(t, 123, h.interviews.duration(h.id))
	require.Equal(t, 1, h.queue.count())
}

func TestAbortSkipsReport(t *testing.T) {
	h := newHarness(t, models.PlanFree, "easy", "en")
	h.mustStart(t)

	status, err := h.driver.Abort(context.Background(), h.id)
	require.NoError(t, err)
	require.Equal(t, models.StatusAborted, status)
	require.Zero(t, h.queue.count())

	// complete after abort reports the existing terminal state
	status, err = h.driver.Complete(context.Background(), h.id, 10)
	require.NoError(t, err)
	require.Equal(t, models.StatusAborted, status)
}

// ---------------------------------------------------------------------------
// recovery after restart
// ---------------------------------------------------------------------------

func TestDriverRecoversStateFromStores(t *testing.T) {
	h := newHarness(t, models.PlanFree, "easy", "en")
	h.mustStart(t)
	require.NoError(t, h.driver.SubmitAnswer(context.Background(), h.id, "an answer"))

	// a fresh driver over the same stores picks up mid-conversation
	restarted := services.NewDriver(h.interviews, h.turns, h.oracle, h.queue, nil)
	state, err := restarted.State(context.Background(), h.id)
	require.NoError(t, err)
	require.Equal(t, services.StateAwaitingNextQuestion, state)

	q, done, err := restarted.Advance(context.Background(), h.id)
	require.NoError(t, err)
	require.False(t, done)
	require.NotEmpty(t, q)
}

func TestDriverRecoversTerminalStatus(t *testing.T) {
	h := newHarness(t, models.PlanFree, "easy", "en")
	h.mustStart(t)
	_, err := h.driver.Complete(context.Background(), h.id, 50)
	require.NoError(t, err)

	restarted := services.NewDriver(h.interviews, h.turns, h.oracle, h.queue, nil)
	_, _, err = restarted.Advance(context.Background(), h.id)
	require.True(t, utils.IsCode(err, utils.CodeStaleSession))
}

// transcript order is append order, and the timestamps increase strictly
func TestTranscriptOrdering(t *testing.T) {
	h := newHarness(t, models.PlanFree, "easy", "en")
	h.mustStart(t)
	h.answerAndAdvance(t, "one")
	h.answerAndAdvance(t, "two")

	all, err := h.turns.ListByInterview(context.Background(), h.id)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		require.True(t, all[i].Timestamp.After(all[i-1].Timestamp))
	}
	require.Equal(t,
		[]models.TurnRole{models.RoleAI, models.RoleUser, models.RoleAI, models.RoleUser, models.RoleAI},
		h.turns.roles(h.id))
}
