package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
	"github.com/aliskhannn/certitester-bot/internal/storage"
)

const testUserID int64 = 42

var errBankMissing = errors.New("bank missing")

func singleQuestion(text string, correct int) entities.Question {
	opts := make([]entities.Option, 4)
	for i := range opts {
		opts[i] = entities.Option{
			Text:   fmt.Sprintf("%s-%d", text, i),
			TextEN: fmt.Sprintf("%s-en-%d", text, i),
			Flag:   i == correct,
		}
	}
	return entities.Question{
		Question:   text,
		QuestionEN: text + "-en",
		Options:    opts,
		Analysis:   text + " analysis",
	}
}

func multiQuestion(text string, correct ...int) entities.Question {
	q := singleQuestion(text, -1)
	for _, idx := range correct {
		q.Options[idx].Flag = true
	}
	return q
}

func weighted(q entities.Question, score float64) entities.Question {
	q.Score = &score
	return q
}

// fakeBanks serves fixed banks and a single exam template.
type fakeBanks struct {
	mu    sync.Mutex
	banks map[string][]entities.Question
	exam  []entities.Question
	loads []string
}

func newFakeBanks() *fakeBanks {
	return &fakeBanks{
		banks: map[string][]entities.Question{
			"general": {
				singleQuestion("G1", 0),
				singleQuestion("G2", 1),
				multiQuestion("G3", 0, 2),
			},
			"other": {
				singleQuestion("O1", 3),
				singleQuestion("O2", 0),
			},
			"empty": {},
		},
		exam: []entities.Question{
			singleQuestion("E1", 0),
			weighted(multiQuestion("E2", 1, 2), 2),
			singleQuestion("E3", 2),
		},
	}
}

func (f *fakeBanks) LoadBank(_ context.Context, key string) ([]entities.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.loads = append(f.loads, key)
	questions, ok := f.banks[key]
	if !ok {
		return nil, errBankMissing
	}
	return entities.Reindex(slices.Clone(questions)), nil
}

func (f *fakeBanks) BankName(_ context.Context, key string) string {
	return "Bank " + key
}

func (f *fakeBanks) LoadExamTemplate(_ context.Context, ref string) (*entities.ExamTemplate, error) {
	if ref != "mock.json" {
		return nil, errBankMissing
	}
	return &entities.ExamTemplate{
		Ref:      ref,
		Name:     "Mock exam",
		Sections: []entities.ExamSection{{Bank: "general"}},
	}, nil
}

func (f *fakeBanks) LoadExamQuestions(_ context.Context, _ *entities.ExamTemplate) ([]entities.Question, error) {
	return entities.Reindex(slices.Clone(f.exam)), nil
}

func (f *fakeBanks) loadCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, k := range f.loads {
		if k == key {
			n++
		}
	}
	return n
}

// recordingPresenter keeps every instruction it receives.
type recordingPresenter struct {
	mu        sync.Mutex
	notices   []Notice
	confirms  []ConfirmRequest
	controls  []ControlsView
	navs      []NavigationView
	questions []QuestionView
	results   []entities.ExamResult
	elapsed   []time.Duration
}

func (p *recordingPresenter) Notify(_ context.Context, n Notice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notices = append(p.notices, n)
}

func (p *recordingPresenter) Confirm(_ context.Context, req ConfirmRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirms = append(p.confirms, req)
}

func (p *recordingPresenter) RenderControls(_ context.Context, view ControlsView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.controls = append(p.controls, view)
}

func (p *recordingPresenter) RenderNavigation(_ context.Context, view NavigationView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navs = append(p.navs, view)
}

func (p *recordingPresenter) RenderQuestion(_ context.Context, view QuestionView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.questions = append(p.questions, view)
}

func (p *recordingPresenter) RenderExamResult(_ context.Context, result entities.ExamResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, result)
}

func (p *recordingPresenter) ReportElapsed(_ context.Context, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elapsed = append(p.elapsed, elapsed)
}

func (p *recordingPresenter) lastNotice() Notice {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.notices) == 0 {
		return Notice{}
	}
	return p.notices[len(p.notices)-1]
}

func (p *recordingPresenter) hasNotice(code NoticeCode) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.notices {
		if n.Code == code {
			return true
		}
	}
	return false
}

func (p *recordingPresenter) lastQuestion() QuestionView {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.questions) == 0 {
		return QuestionView{}
	}
	return p.questions[len(p.questions)-1]
}

func (p *recordingPresenter) lastNavigation() NavigationView {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.navs) == 0 {
		return NavigationView{}
	}
	return p.navs[len(p.navs)-1]
}

func (p *recordingPresenter) lastControls() ControlsView {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.controls) == 0 {
		return ControlsView{}
	}
	return p.controls[len(p.controls)-1]
}

func (p *recordingPresenter) lastConfirm() (ConfirmRequest, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.confirms) == 0 {
		return ConfirmRequest{}, false
	}
	return p.confirms[len(p.confirms)-1], true
}

func (p *recordingPresenter) resultCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.results)
}

func (p *recordingPresenter) elapsedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.elapsed)
}

func testOptions() Options {
	return Options{
		CorrectAdvanceDelay: 10 * time.Millisecond,
		AutoNextDelay:       20 * time.Millisecond,
		StudyAutoNextDelay:  10 * time.Millisecond,
		ExamAdvanceDelay:    10 * time.Millisecond,
		AutoSubmitDelay:     5 * time.Millisecond,
		ClockSpec:           "@every 1h",
		DefaultBank:         "general",
	}
}

type testSession struct {
	c         *SessionController
	presenter *recordingPresenter
	store     *storage.SessionStorage
	banks     *fakeBanks
}

func newTestSession(t *testing.T, opts Options) *testSession {
	t.Helper()

	ts := &testSession{
		presenter: &recordingPresenter{},
		store:     storage.NewSessionStorage(10),
		banks:     newFakeBanks(),
	}
	ts.c = NewSessionController(context.Background(), testUserID, ts.banks, ts.store, ts.store, ts.presenter, zap.NewNop(), opts)
	t.Cleanup(ts.c.Close)

	require.NoError(t, ts.c.Start(context.Background()))
	return ts
}

func (ts *testSession) current() int {
	return ts.c.State().Current
}

func (ts *testSession) record(pos int) *entities.AnswerRecord {
	return ts.c.State().Answers[pos]
}
