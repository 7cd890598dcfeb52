package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/mockmate/mockmate/internal/models"
	"github.com/mockmate/mockmate/internal/providers/llm"
	"github.com/mockmate/mockmate/internal/services"
)

const reportStream = "reports:stream"

// RedisReportQueue pushes completed interviews onto the report stream.
type RedisReportQueue struct {
	Redis *redis.Client
}

func (q *RedisReportQueue) Enqueue(ctx context.Context, interviewID, userID string) error {
	return q.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: reportStream,
		Values: map[string]any{
			"interview_id": interviewID,
			"user_id":      userID,
		},
	}).Err()
}

// ReportWorkerPool consumes completed interviews, asks the oracle for an
// assessment of the transcript, stores the report, and spends the free-plan
// interview credit.
type ReportWorkerPool struct {
	Redis      *redis.Client
	Interviews services.InterviewService
	Turns      services.TurnService
	Reports    services.ReportService
	Profiles   services.ProfileService
	LLM        llm.Provider
	NumWorkers int

	Logger *logrus.Logger

	Group          string
	ConsumerPrefix string
}

func (p *ReportWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Interviews == nil || p.Turns == nil || p.Reports == nil || p.LLM == nil {
		return errors.New("ReportWorkerPool missing dependency: Redis/Interviews/Turns/Reports/LLM must be set")
	}
	if p.Group == "" {
		p.Group = "report-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "r"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, reportStream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *ReportWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{reportStream, ">"},
			Count:    5,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, reportStream, p.Group, msg.ID).Err()
			}
		}
	}
}

// assessment is the JSON shape the oracle is instructed to return.
type assessment struct {
	OverallScore  int      `json:"overall_score"`
	Communication int      `json:"communication"`
	Confidence    int      `json:"confidence"`
	Technical     int      `json:"technical"`
	Structure     int      `json:"structure"`
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Suggestions   []string `json:"suggestions"`
}

func (p *ReportWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	interviewID := getStr("interview_id")
	userID := getStr("user_id")
	if interviewID == "" || userID == "" {
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":     msg.ID,
		"interview_id": interviewID,
	})

	// a replayed message after a crash must not produce a second report or
	// spend a second credit
	if _, err := p.Reports.GetByInterview(ctx, interviewID); err == nil {
		log.Debug("report already exists, skipping")
		return
	}

	iv, err := p.Interviews.Get(ctx, interviewID)
	if err != nil {
		log.WithError(err).Error("failed to load interview for report")
		return
	}

	turns, err := p.Turns.ListByInterview(ctx, interviewID)
	if err != nil {
		log.WithError(err).Error("failed to load transcript for report")
		return
	}

	raw, a, err := p.assess(ctx, iv, turns)
	if err != nil {
		log.WithError(err).Error("assessment generation failed")
		return
	}

	report := &models.Report{
		ID:            uuid.NewString(),
		InterviewID:   interviewID,
		UserID:        userID,
		OverallScore:  a.OverallScore,
		Communication: a.Communication,
		Confidence:    a.Confidence,
		Technical:     a.Technical,
		Structure:     a.Structure,
		Strengths:     a.Strengths,
		Weaknesses:    a.Weaknesses,
		Suggestions:   a.Suggestions,
		Raw:           raw,
		CreatedAt:     time.Now().UTC(),
	}

	if err := p.Reports.Save(ctx, report); err != nil {
		log.WithError(err).Error("failed to save report")
		return
	}
	if err := p.Interviews.SetScore(ctx, interviewID, a.OverallScore); err != nil {
		log.WithError(err).Warn("failed to set interview score")
	}
	if p.Profiles != nil {
		if err := p.Profiles.SpendInterview(ctx, userID); err != nil {
			log.WithError(err).Warn("failed to spend interview credit")
		}
	}

	payload, _ := json.Marshal(map[string]any{
		"type":          "report_ready",
		"interview_id":  interviewID,
		"overall_score": a.OverallScore,
	})
	_ = p.Redis.Publish(ctx, "interview:"+interviewID+":report", string(payload)).Err()

	log.WithField("overall_score", a.OverallScore).Info("report generated")
}

func (p *ReportWorkerPool) assess(ctx context.Context, iv *models.Interview, turns []models.Turn) ([]byte, *assessment, error) {
	var sb strings.Builder
	for _, t := range turns {
		speaker := "Candidate"
		if t.Role == models.RoleAI {
			speaker = "Interviewer"
		}
		sb.WriteString(speaker + ": " + t.Text + "\n")
	}

	prompt := fmt.Sprintf(`You are an interview assessor. Score the candidate below.

Role: %s
Job Description:
%s

Transcript:
%s

Return ONLY a JSON object with integer fields overall_score, communication, confidence, technical, structure (each 0-100) and string-array fields strengths, weaknesses, suggestions.`,
		iv.JobTitle, iv.JobDescription, sb.String())

	octx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out, err := p.LLM.Complete(octx, prompt)
	if err != nil {
		return nil, nil, err
	}

	// models sometimes wrap the JSON in a code fence
	out = strings.TrimSpace(out)
	out = strings.TrimPrefix(out, "```json")
	out = strings.TrimPrefix(out, "```")
	out = strings.TrimSuffix(out, "```")
	out = strings.TrimSpace(out)

	var a assessment
	if err := json.Unmarshal([]byte(out), &a); err != nil {
		return nil, nil, fmt.Errorf("unparseable assessment: %w", err)
	}
	return []byte(out), &a, nil
}
