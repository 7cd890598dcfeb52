package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/mockmate/mockmate/internal/interview"
	"github.com/mockmate/mockmate/internal/models"
	"github.com/mockmate/mockmate/internal/providers/llm"
	"github.com/mockmate/mockmate/internal/utils"

	"github.com/sirupsen/logrus"
)

type DriverState string

const (
	StateCreated              DriverState = "created"
	StateAwaitingAnswer       DriverState = "awaiting-answer"
	StateAwaitingNextQuestion DriverState = "awaiting-next-question"
	StateCompleted            DriverState = "completed"
	StateAborted              DriverState = "aborted"
)

// ReportQueue hands a finished interview to the scoring pipeline.
type ReportQueue interface {
	Enqueue(ctx context.Context, interviewID, userID string) error
}

// Driver owns the per-interview turn loop: opening question, answer intake,
// next-question generation, the time and question budgets, and completion.
// All state transitions for one interview are serialized behind a
// per-interview mutex; distinct interviews are fully independent.
type Driver struct {
	interviews InterviewService
	turns      TurnService
	oracle     llm.Provider
	queue      ReportQueue
	classify   interview.Classifier
	log        *logrus.Logger

	oracleTimeout time.Duration

	mu   sync.Mutex
	runs map[string]*interviewRun
}

type interviewRun struct {
	mu sync.Mutex

	iv *models.Interview // immutable setup fields + plan captured at creation

	state     DriverState
	questions int   // AI questions asked so far
	elapsed   int64 // seconds, driven by Tick

	budgetSeconds int64
	maxQuestions  int

	// one oracle call in flight at a time; the lock is not held across the
	// call so Tick can still preempt
	advancing bool
}

func NewDriver(interviews InterviewService, turns TurnService, oracle llm.Provider, queue ReportQueue, log *logrus.Logger) *Driver {
	if log == nil {
		log = logrus.New()
	}
	return &Driver{
		interviews:    interviews,
		turns:         turns,
		oracle:        oracle,
		queue:         queue,
		classify:      interview.IsFollowUp,
		log:           log,
		oracleTimeout: 15 * time.Second,
		runs:          map[string]*interviewRun{},
	}
}

// SetClassifier swaps the follow-up heuristic; used by tests and reserved
// for a future semantic classifier.
func (d *Driver) SetClassifier(c interview.Classifier) {
	if c != nil {
		d.classify = c
	}
}

// run returns the runtime state for an interview, hydrating it from the
// stores on first touch. Terminal status in the store always wins; otherwise
// the last persisted turn decides whose move it is.
func (d *Driver) run(ctx context.Context, interviewID string) (*interviewRun, error) {
	d.mu.Lock()
	if r, ok := d.runs[interviewID]; ok {
		d.mu.Unlock()
		return r, nil
	}
	d.mu.Unlock()

	iv, err := d.interviews.Get(ctx, interviewID)
	if err != nil {
		return nil, err
	}

	r := &interviewRun{
		iv:            iv,
		state:         StateCreated,
		budgetSeconds: interview.TimeBudgetSeconds(iv.AvatarType),
		maxQuestions:  interview.Capabilities(iv.Plan).MaxQuestions,
	}

	switch iv.Status {
	case models.StatusCompleted:
		r.state = StateCompleted
	case models.StatusAborted:
		r.state = StateAborted
	default:
		turns, err := d.turns.ListByInterview(ctx, interviewID)
		if err != nil {
			return nil, err
		}
		for _, t := range turns {
			if t.Role == models.RoleAI {
				r.questions++
			}
		}
		if len(turns) > 0 {
			if turns[len(turns)-1].Role == models.RoleAI {
				r.state = StateAwaitingAnswer
			} else {
				r.state = StateAwaitingNextQuestion
			}
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.runs[interviewID]; ok {
		return existing, nil
	}
	d.runs[interviewID] = r
	return r, nil
}

func staleErr(op string) error {
	return utils.E(utils.CodeStaleSession, op, "interview already ended", nil)
}

// Start emits the canonical opening question for the interview's language
// and hands the floor to the candidate. No oracle call is made for turn 0.
func (d *Driver) Start(ctx context.Context, interviewID string) (string, error) {
	const op = "Driver.Start"

	r, err := d.run(ctx, interviewID)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateCompleted || r.state == StateAborted {
		return "", staleErr(op)
	}
	if r.state != StateCreated {
		return "", utils.E(utils.CodeConflict, op, "interview already started", nil)
	}

	opener := interview.Opener(r.iv.Language)
	if _, err := d.turns.Append(ctx, r.iv.UserID, interviewID, models.RoleAI, opener, nil, nil); err != nil {
		return "", err
	}
	r.questions = 1
	r.state = StateAwaitingAnswer
	return opener, nil
}

// SubmitAnswer records the candidate's finished answer. An empty or
// whitespace-only answer is a skip: nothing is persisted, but the driver
// still moves on to generating the next question.
func (d *Driver) SubmitAnswer(ctx context.Context, interviewID, answerText string) error {
	const op = "Driver.SubmitAnswer"

	r, err := d.run(ctx, interviewID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateCompleted || r.state == StateAborted {
		return staleErr(op)
	}
	if r.state != StateAwaitingAnswer {
		return utils.E(utils.CodeConflict, op, "no question is awaiting an answer", nil)
	}

	answer := strings.TrimSpace(answerText)
	if answer != "" {
		if _, err := d.turns.Append(ctx, r.iv.UserID, interviewID, models.RoleUser, answer, nil, nil); err != nil {
			// state unchanged; the caller may retry the submit
			return err
		}
	}
	r.state = StateAwaitingNextQuestion
	return nil
}

// Advance runs classification, policy, prompt composition, and the oracle
// call, then appends the resulting question. When the question budget is
// spent it completes the interview instead and reports done=true. Oracle
// failures leave the interview in awaiting-next-question so a retry is safe.
func (d *Driver) Advance(ctx context.Context, interviewID string) (question string, done bool, err error) {
	const op = "Driver.Advance"

	r, err := d.run(ctx, interviewID)
	if err != nil {
		return "", false, err
	}

	r.mu.Lock()
	if r.state == StateCompleted || r.state == StateAborted {
		r.mu.Unlock()
		return "", false, staleErr(op)
	}
	if r.state != StateAwaitingNextQuestion {
		r.mu.Unlock()
		return "", false, utils.E(utils.CodeConflict, op, "not awaiting a question", nil)
	}
	if r.advancing {
		r.mu.Unlock()
		return "", false, utils.E(utils.CodeConflict, op, "a question is already being generated", nil)
	}
	if r.questions >= r.maxQuestions {
		err := d.finishLocked(ctx, r, models.StatusCompleted, r.elapsed)
		r.mu.Unlock()
		return "", true, err
	}
	iv := r.iv
	r.advancing = true
	r.mu.Unlock()

	clearAdvancing := func() {
		r.mu.Lock()
		r.advancing = false
		r.mu.Unlock()
	}

	recent, err := d.turns.Recent(ctx, interviewID, interview.TranscriptWindow)
	if err != nil {
		clearAdvancing()
		return "", false, err
	}

	var aiTexts []string
	transcript := make([]interview.TurnText, 0, len(recent))
	for _, t := range recent {
		transcript = append(transcript, interview.TurnText{Role: t.Role, Text: t.Text})
		if t.Role == models.RoleAI {
			aiTexts = append(aiTexts, t.Text)
		}
	}

	used := interview.CountFollowUps(aiTexts, d.classify)
	decision := interview.Decide(iv.Plan, used, interview.Capabilities(iv.Plan).FollowUpsLimit)

	prompt, err := interview.Compose(interview.PromptParams{
		JobTitle:       iv.JobTitle,
		JobDescription: iv.JobDescription,
		AvatarType:     iv.AvatarType,
		Language:       iv.Language,
		Plan:           iv.Plan,
		Turns:          transcript,
		Decision:       decision,
	})
	if err != nil {
		clearAdvancing()
		return "", false, err
	}

	octx, cancel := context.WithTimeout(ctx, d.oracleTimeout)
	text, oerr := d.oracle.Complete(octx, prompt)
	cancel()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.advancing = false

	// a tick may have expired the time budget while the oracle was out;
	// the late result is discarded, never applied
	if r.state == StateCompleted || r.state == StateAborted {
		return "", false, staleErr(op)
	}

	if oerr != nil {
		code := utils.CodeUnavailable
		if errors.Is(oerr, context.DeadlineExceeded) {
			code = utils.CodeTimeout
		}
		d.log.WithError(oerr).WithField("interview_id", interviewID).Warn("next question generation failed")
		return "", false, utils.E(code, op, "could not get next question, please try again", oerr)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", false, utils.E(utils.CodeUnavailable, op, "oracle returned an empty question", nil)
	}

	if _, err := d.turns.Append(ctx, iv.UserID, interviewID, models.RoleAI, text, nil, nil); err != nil {
		return "", false, err
	}
	r.questions++
	r.state = StateAwaitingAnswer
	return text, false, nil
}

// Tick advances the interview clock. Hitting the time budget completes the
// interview no matter what the loop is doing; later calls are no-ops.
func (d *Driver) Tick(ctx context.Context, interviewID string, elapsedDeltaSeconds int64) (completed bool, err error) {
	const op = "Driver.Tick"

	if elapsedDeltaSeconds < 0 {
		return false, utils.E(utils.CodeInvalidArgument, op, "elapsed delta must be >= 0", nil)
	}

	r, err := d.run(ctx, interviewID)
	if err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateCompleted || r.state == StateAborted {
		return true, nil
	}

	r.elapsed += elapsedDeltaSeconds
	if r.elapsed >= r.budgetSeconds {
		if err := d.finishLocked(ctx, r, models.StatusCompleted, r.budgetSeconds); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// Complete ends the interview and triggers report generation. Idempotent:
// completing an already-ended interview reports the existing terminal state
// without repeating side effects.
func (d *Driver) Complete(ctx context.Context, interviewID string, actualDurationSeconds int64) (models.InterviewStatus, error) {
	r, err := d.run(ctx, interviewID)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateCompleted:
		return models.StatusCompleted, nil
	case StateAborted:
		return models.StatusAborted, nil
	}

	if actualDurationSeconds < 0 {
		actualDurationSeconds = r.elapsed
	}
	if err := d.finishLocked(ctx, r, models.StatusCompleted, actualDurationSeconds); err != nil {
		return "", err
	}
	return models.StatusCompleted, nil
}

// Abort ends the interview without scoring it. Idempotent like Complete.
func (d *Driver) Abort(ctx context.Context, interviewID string) (models.InterviewStatus, error) {
	r, err := d.run(ctx, interviewID)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateCompleted:
		return models.StatusCompleted, nil
	case StateAborted:
		return models.StatusAborted, nil
	}

	if err := d.finishLocked(ctx, r, models.StatusAborted, r.elapsed); err != nil {
		return "", err
	}
	return models.StatusAborted, nil
}

// State exposes the driver's view of an interview, mostly for handlers and
// tests.
func (d *Driver) State(ctx context.Context, interviewID string) (DriverState, error) {
	r, err := d.run(ctx, interviewID)
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, nil
}

// finishLocked persists the terminal status and, on completion, enqueues
// report generation exactly once. Caller holds r.mu. If the store write
// fails the run stays non-terminal so the caller can retry.
func (d *Driver) finishLocked(ctx context.Context, r *interviewRun, status models.InterviewStatus, durationSeconds int64) error {
	if err := d.interviews.End(ctx, r.iv.InterviewID, status, durationSeconds); err != nil {
		return err
	}

	if status == models.StatusAborted {
		r.state = StateAborted
	} else {
		r.state = StateCompleted
		if d.queue != nil {
			if err := d.queue.Enqueue(ctx, r.iv.InterviewID, r.iv.UserID); err != nil {
				d.log.WithError(err).WithField("interview_id", r.iv.InterviewID).Error("failed to enqueue report job")
			}
		}
	}
	return nil
}
