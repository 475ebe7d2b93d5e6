package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/komapc/daatan-sub000/internal/botrunner/config"
	"github.com/komapc/daatan-sub000/internal/botrunner/dto"
	"github.com/komapc/daatan-sub000/internal/botrunner/llm"
	"github.com/komapc/daatan-sub000/internal/botrunner/repository"
	"github.com/komapc/daatan-sub000/internal/entity"
	"github.com/komapc/daatan-sub000/pkg/lock"
	"github.com/komapc/daatan-sub000/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeBotRepo struct {
	bots    []entity.BotConfig
	updated map[string]time.Time
}

func (r *fakeBotRepo) FindActive(context.Context) ([]entity.BotConfig, error) {
	var out []entity.BotConfig
	for _, b := range r.bots {
		if b.IsActive {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBotRepo) FindByID(_ context.Context, id string) (*entity.BotConfig, error) {
	for i := range r.bots {
		if r.bots[i].ID == id {
			b := r.bots[i]
			return &b, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeBotRepo) UpdateLastRunAt(_ context.Context, id string, at time.Time) error {
	if r.updated == nil {
		r.updated = map[string]time.Time{}
	}
	r.updated[id] = at
	return nil
}

type fakeRunLogRepo struct {
	mu   sync.Mutex
	logs []entity.BotRunLog
	now  func() time.Time
	// failAction makes inserts of that action fail.
	failAction entity.BotAction
}

func (r *fakeRunLogRepo) Create(_ context.Context, log *entity.BotRunLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAction != "" && log.Action == r.failAction {
		return errors.New("connection reset")
	}
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.RunAt.IsZero() {
		log.RunAt = r.now()
	}
	r.logs = append(r.logs, *log)
	return nil
}

func (r *fakeRunLogRepo) CountSince(_ context.Context, botID string, action entity.BotAction, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.logs {
		if l.BotID == botID && l.Action == action && !l.IsDryRun && !l.RunAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *fakeRunLogRepo) FindLatestByBot(_ context.Context, botID string, limit int) ([]entity.BotRunLog, error) {
	var out []entity.BotRunLog
	for i := len(r.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if r.logs[i].BotID == botID {
			out = append(out, r.logs[i])
		}
	}
	return out, nil
}

func (r *fakeRunLogRepo) byAction(action entity.BotAction) []entity.BotRunLog {
	var out []entity.BotRunLog
	for _, l := range r.logs {
		if l.Action == action {
			out = append(out, l)
		}
	}
	return out
}

func (r *fakeRunLogRepo) seed(botID string, action entity.BotAction, n int, at time.Time) {
	for i := 0; i < n; i++ {
		r.logs = append(r.logs, entity.BotRunLog{ID: uuid.NewString(), BotID: botID, Action: action, RunAt: at})
	}
}

type fakeForecastRepo struct {
	claims     []string
	slugs      []string
	drafts     []entity.Forecast
	published  []string
	candidates []entity.Forecast
	createErr  error
}

func (r *fakeForecastRepo) FindRecentClaims(context.Context, int) ([]string, error) {
	return r.claims, nil
}

func (r *fakeForecastRepo) FindSlugsWithPrefix(_ context.Context, prefix string) ([]string, error) {
	var out []string
	for _, s := range r.slugs {
		if strings.HasPrefix(s, prefix) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeForecastRepo) CreateDraft(_ context.Context, f *entity.Forecast) error {
	if r.createErr != nil {
		return r.createErr
	}
	f.ID = uuid.NewString()
	f.Status = entity.ForecastStatusDraft
	r.drafts = append(r.drafts, *f)
	r.slugs = append(r.slugs, f.Slug)
	return nil
}

func (r *fakeForecastRepo) Publish(_ context.Context, id string) error {
	r.published = append(r.published, id)
	return nil
}

func (r *fakeForecastRepo) FindVoteCandidates(_ context.Context, _ string, _ []string, limit int) ([]entity.Forecast, error) {
	if len(r.candidates) > limit {
		return r.candidates[:limit], nil
	}
	return r.candidates, nil
}

type fakeUserRepo struct {
	balance      map[string]int
	transactions int
	calls        int
}

func (r *fakeUserRepo) RefillIfAtOrBelow(_ context.Context, userID string, threshold, amount int) (bool, error) {
	r.calls++
	if r.balance[userID] > threshold {
		return false, nil
	}
	r.balance[userID] += amount
	r.transactions++
	return true, nil
}

type fakeCommitmentRepo struct {
	requests []dto.CommitmentRequest
	reject   string
	err      error
}

func (r *fakeCommitmentRepo) CreateCommitment(_ context.Context, _, _ string, req dto.CommitmentRequest) (*dto.CommitmentResult, error) {
	r.requests = append(r.requests, req)
	if r.err != nil {
		return nil, r.err
	}
	if r.reject != "" {
		return &dto.CommitmentResult{Error: r.reject}, nil
	}
	return &dto.CommitmentResult{OK: true, CommitmentID: uuid.NewString()}, nil
}

type fakeFetcher struct {
	calls int
	items []dto.NewsItem
	err   error
	panic bool
}

func (f *fakeFetcher) FetchSources(context.Context, []string) ([]dto.NewsItem, error) {
	f.calls++
	if f.panic {
		panic("feed parser exploded")
	}
	return f.items, f.err
}

type fakeDetector struct {
	topics []dto.HotTopic
}

func (d *fakeDetector) DetectHotTopics([]dto.NewsItem, int, int) []dto.HotTopic {
	return d.topics
}

// scriptedProvider answers by prompt kind.
type scriptedProvider struct {
	mu       sync.Mutex
	dedup    func(call int) (string, error)
	forecast func(call int) (string, error)
	vote     func(call int) (string, error)
	calls    []dto.GenerateRequest
	counts   map[string]int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) GenerateContent(_ context.Context, req dto.GenerateRequest) (*dto.GenerateResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.counts == nil {
		p.counts = map[string]int{}
	}
	p.calls = append(p.calls, req)

	kind, handler := p.route(req.Prompt)
	call := p.counts[kind]
	p.counts[kind]++
	if handler == nil {
		return nil, fmt.Errorf("unexpected %s prompt", kind)
	}
	text, err := handler(call)
	if err != nil {
		return nil, err
	}
	return &dto.GenerateResponse{Text: text, Provider: p.Name()}, nil
}

func (p *scriptedProvider) route(prompt string) (string, func(int) (string, error)) {
	switch {
	case strings.Contains(prompt, "duplicate questions"):
		return "dedup", p.dedup
	case strings.Contains(prompt, "Write one new, testable forecast"):
		return "forecast", p.forecast
	default:
		return "vote", p.vote
	}
}

func always(text string) func(int) (string, error) {
	return func(int) (string, error) { return text, nil }
}

func failing(msg string) func(int) (string, error) {
	return func(int) (string, error) { return "", errors.New(msg) }
}

type heldLocker struct{}

func (heldLocker) Acquire(context.Context, string, time.Duration) (lock.Lease, error) {
	return nil, lock.ErrNotAcquired
}

const validForecastJSON = `Here you go:
{"claim_text": "Central bank raises rates before July", "details_text": "Inflation is high", "outcome_type": "BINARY",
 "resolve_by_datetime": "2026-07-01", "resolution_rules": "Official announcement", "tags": ["Economy", "rates", "economy"]}`

type harness struct {
	now         time.Time
	bots        *fakeBotRepo
	runLogs     *fakeRunLogRepo
	forecasts   *fakeForecastRepo
	users       *fakeUserRepo
	commitments *fakeCommitmentRepo
	fetcher     *fakeFetcher
	detector    *fakeDetector
	provider    *scriptedProvider
	locker      lock.Locker
}

func newHarness() *harness {
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	return &harness{
		now:         now,
		bots:        &fakeBotRepo{},
		runLogs:     &fakeRunLogRepo{now: func() time.Time { return now }},
		forecasts:   &fakeForecastRepo{},
		users:       &fakeUserRepo{balance: map[string]int{}},
		commitments: &fakeCommitmentRepo{},
		fetcher:     &fakeFetcher{items: []dto.NewsItem{{Title: "x"}}},
		detector:    &fakeDetector{},
		provider:    &scriptedProvider{},
	}
}

func (h *harness) service(t *testing.T) *botRunnerService {
	t.Helper()
	cfg := &config.Config{}
	log := logger.NewNop()
	svc := NewBotRunnerService(cfg, Dependencies{
		BotRepo:        h.bots,
		RunLogRepo:     h.runLogs,
		ForecastRepo:   h.forecasts,
		UserRepo:       h.users,
		CommitmentRepo: h.commitments,
		LLM:            llm.NewChain([]repository.LLMProvider{h.provider}, log),
		Fetcher:        h.fetcher,
		Detector:       h.detector,
		Locker:         h.locker,
	}, log).(*botRunnerService)
	svc.now = func() time.Time { return h.now }
	svc.forecasts.stakeAmount = func(min, _ int) int { return min }
	svc.votes.stakeAmount = func(min, _ int) int { return min }
	return svc
}

func newBot(id string) entity.BotConfig {
	return entity.BotConfig{
		ID:                 id,
		UserID:             "user-" + id,
		Name:               "Bot " + id,
		IsActive:           true,
		IntervalMinutes:    60,
		MaxForecastsPerDay: 5,
		MaxVotesPerDay:     5,
		StakeMin:           10,
		StakeMax:           20,
		HotnessMinSources:  2,
		HotnessWindowHours: 6,
		NewsSources:        []string{"https://example.com/rss"},
		VoteBias:           50,
		CanCreateForecasts: true,
	}
}

func topic(title string) dto.HotTopic {
	return dto.HotTopic{
		Title:       title,
		SourceCount: 2,
		Items: []dto.NewsItem{
			{Title: title, Link: "https://a.example/" + title, Source: "A"},
			{Title: title, Link: "https://b.example/" + title, Source: "B"},
		},
	}
}
