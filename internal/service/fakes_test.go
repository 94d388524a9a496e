package service

import (
	"context"
	"sync"
	"time"

	"github.com/lshigami/bandwise/config"
	"github.com/lshigami/bandwise/internal/cache"
	"github.com/lshigami/bandwise/internal/event"
	"github.com/lshigami/bandwise/internal/grading"
	"github.com/lshigami/bandwise/internal/model"
	"github.com/lshigami/bandwise/internal/repository"
	"gorm.io/datatypes"
)

// fakeTestRepo soft-deletes like gorm: deleted tests are hidden from
// scoped lookups and still reachable unscoped.
type fakeTestRepo struct {
	tests   map[uint]*model.Test
	deleted map[uint]bool
	nextID  uint
}

func newFakeTestRepo() *fakeTestRepo {
	return &fakeTestRepo{tests: map[uint]*model.Test{}, deleted: map[uint]bool{}}
}

func (r *fakeTestRepo) id() uint {
	r.nextID++
	return r.nextID
}

func (r *fakeTestRepo) Create(_ context.Context, test *model.Test) error {
	test.ID = r.id()
	test.CreatedAt = time.Now()
	for i := range test.Sections {
		test.Sections[i].ID = r.id()
		test.Sections[i].TestID = test.ID
		for j := range test.Sections[i].Questions {
			test.Sections[i].Questions[j].ID = r.id()
			test.Sections[i].Questions[j].SectionID = test.Sections[i].ID
		}
	}
	r.tests[test.ID] = test
	return nil
}

// put stores a hand-built test with its IDs as given.
func (r *fakeTestRepo) put(test *model.Test) {
	r.tests[test.ID] = test
}

func (r *fakeTestRepo) live(id uint) (*model.Test, bool) {
	t, ok := r.tests[id]
	if !ok || r.deleted[id] {
		return nil, false
	}
	return t, true
}

func (r *fakeTestRepo) Update(_ context.Context, test *model.Test) error {
	if _, ok := r.live(test.ID); !ok {
		return repository.ErrNotFound
	}
	r.tests[test.ID] = test
	return nil
}

func (r *fakeTestRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.live(id); !ok {
		return repository.ErrNotFound
	}
	r.deleted[id] = true
	return nil
}

func (r *fakeTestRepo) FindByID(_ context.Context, id uint) (*model.Test, error) {
	t, ok := r.live(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

func (r *fakeTestRepo) FindByIDWithContent(ctx context.Context, id uint) (*model.Test, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeTestRepo) FindByIDWithContentUnscoped(_ context.Context, id uint) (*model.Test, error) {
	t, ok := r.tests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

func (r *fakeTestRepo) FindAllSummaries(_ context.Context, skill model.Skill) ([]repository.TestSummary, error) {
	var out []repository.TestSummary
	for id, t := range r.tests {
		if r.deleted[id] || (skill != "" && t.Skill != skill) {
			continue
		}
		count := 0
		for _, s := range t.Sections {
			count += len(s.Questions)
		}
		out = append(out, repository.TestSummary{Test: *t, QuestionCount: count})
	}
	return out, nil
}

type fakeQuestionRepo struct {
	tests *fakeTestRepo
}

func (r *fakeQuestionRepo) locate(id uint) (*model.Test, *model.Section, int) {
	for _, t := range r.tests.tests {
		for si := range t.Sections {
			for qi := range t.Sections[si].Questions {
				if t.Sections[si].Questions[qi].ID == id {
					return t, &t.Sections[si], qi
				}
			}
		}
	}
	return nil, nil, -1
}

func (r *fakeQuestionRepo) FindByID(_ context.Context, id uint) (*model.Question, error) {
	_, sec, qi := r.locate(id)
	if sec == nil {
		return nil, repository.ErrNotFound
	}
	q := sec.Questions[qi]
	return &q, nil
}

func (r *fakeQuestionRepo) TestIDOf(_ context.Context, q *model.Question) (uint, error) {
	t, _, _ := r.locate(q.ID)
	if t == nil {
		return 0, repository.ErrNotFound
	}
	return t.ID, nil
}

func (r *fakeQuestionRepo) OrderInUse(_ context.Context, sectionID uint, order int, excludeID uint) (bool, error) {
	for _, t := range r.tests.tests {
		for _, sec := range t.Sections {
			if sec.ID != sectionID {
				continue
			}
			for _, q := range sec.Questions {
				if q.ID != excludeID && q.OrderInSection == order {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

func (r *fakeQuestionRepo) Update(_ context.Context, q *model.Question) error {
	_, sec, qi := r.locate(q.ID)
	if sec == nil {
		return repository.ErrNotFound
	}
	sec.Questions[qi] = *q
	return nil
}

func (r *fakeQuestionRepo) Delete(_ context.Context, id uint) error {
	_, sec, qi := r.locate(id)
	if sec == nil {
		return repository.ErrNotFound
	}
	sec.Questions = append(sec.Questions[:qi], sec.Questions[qi+1:]...)
	return nil
}

// fakeSubmissionRepo mimics the unique (test_id, user_id) index.
type fakeSubmissionRepo struct {
	mu     sync.Mutex
	subs   map[uint]model.Submission
	tests  *fakeTestRepo
	nextID uint
}

func newFakeSubmissionRepo(tests *fakeTestRepo) *fakeSubmissionRepo {
	return &fakeSubmissionRepo{subs: map[uint]model.Submission{}, tests: tests}
}

func (r *fakeSubmissionRepo) Create(_ context.Context, sub *model.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.TestID == sub.TestID && s.UserID == sub.UserID {
			return repository.ErrDuplicate
		}
	}
	r.nextID++
	sub.ID = r.nextID
	sub.SubmittedAt = time.Now()
	r.subs[sub.ID] = *sub
	return nil
}

func (r *fakeSubmissionRepo) FindByID(_ context.Context, id uint) (*model.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *fakeSubmissionRepo) FindByTestAndUser(_ context.Context, testID, userID uint) (*model.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.TestID == testID && s.UserID == userID {
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSubmissionRepo) ListByUser(_ context.Context, userID uint) ([]model.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Submission
	for id := uint(1); id <= r.nextID; id++ {
		s, ok := r.subs[id]
		if !ok || s.UserID != userID {
			continue
		}
		if t, ok := r.tests.tests[s.TestID]; ok {
			s.Test = *t
		}
		out = append(out, s)
	}
	return out, nil
}

// SaveGradePass follows the SQL update: a revision guard, origin-scoped
// columns and human-over-AI display score.
func (r *fakeSubmissionRepo) SaveGradePass(_ context.Context, pass repository.GradePass) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[pass.SubmissionID]
	if !ok {
		return repository.ErrNotFound
	}
	if s.Revision != pass.Revision {
		return repository.ErrStale
	}
	score := pass.Score
	gradedAt := pass.GradedAt
	if pass.ByExaminer {
		s.HumanScore = &score
		s.HumanAssessment = datatypes.NewJSONType(pass.Assessment)
		s.Score = &score
		if pass.Comment != "" {
			s.Feedback = pass.Comment
		}
	} else {
		s.AIScore = &score
		s.AIAssessment = datatypes.NewJSONType(pass.Assessment)
		if s.HumanScore == nil {
			s.Score = &score
			if pass.Comment != "" {
				s.Feedback = pass.Comment
			}
		} else {
			human := *s.HumanScore
			s.Score = &human
		}
	}
	s.Status = model.StatusGraded
	s.GradedAt = &gradedAt
	r.subs[pass.SubmissionID] = s
	return nil
}

func (r *fakeSubmissionRepo) ReplaceAnswers(_ context.Context, id uint, answers model.AnswerSheet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.subs[id] = model.Submission{
		ID:          s.ID,
		TestID:      s.TestID,
		UserID:      s.UserID,
		Answers:     datatypes.NewJSONType(answers),
		Revision:    s.Revision + 1,
		Status:      model.StatusSubmitted,
		SubmittedAt: s.SubmittedAt,
	}
	return nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	changes []event.Change
}

func (p *recordingPublisher) Publish(_ context.Context, change event.Change) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, change)
}

func (p *recordingPublisher) kinds() []event.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]event.Kind, 0, len(p.changes))
	for _, c := range p.changes {
		out = append(out, c.Kind)
	}
	return out
}

func (p *recordingPublisher) has(kind event.Kind) bool {
	for _, k := range p.kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

type fakeWritingGrader struct {
	enabled    bool
	assessment *model.WritingAssessment
	err        error
	calls      [][]EssayTask
	// during runs once inside the next GradeEssays call, while the pass is
	// in flight.
	during func()
}

func (g *fakeWritingGrader) Enabled() bool { return g.enabled }

func (g *fakeWritingGrader) GradeEssays(_ context.Context, tasks []EssayTask) (*model.WritingAssessment, error) {
	g.calls = append(g.calls, tasks)
	if hook := g.during; hook != nil {
		g.during = nil
		hook()
	}
	if g.err != nil {
		return nil, g.err
	}
	a := *g.assessment
	return &a, nil
}

// harness wires the services over the fakes with a disabled cache.
type harness struct {
	tests       *fakeTestRepo
	questions   *fakeQuestionRepo
	submissions *fakeSubmissionRepo
	publisher   *recordingPublisher
	grader      *fakeWritingGrader
	reader      TestReader
	admin       AdminTestService
	questionSvc QuestionService
	users       UserTestService
	writing     WritingGradingService
	submitSvc   *submissionService
}

func newHarness() *harness {
	cfg := &config.Config{}
	store, _ := cache.NewStore(cfg)
	h := &harness{
		tests:     newFakeTestRepo(),
		publisher: &recordingPublisher{},
		grader:    &fakeWritingGrader{},
	}
	h.questions = &fakeQuestionRepo{tests: h.tests}
	h.submissions = newFakeSubmissionRepo(h.tests)
	h.reader = NewTestReader(h.tests, cache.NewTestCache(store, cfg))
	aggregator := grading.NewAggregator(grading.NewGrader(grading.NewMatcher(false)))

	h.admin = NewAdminTestService(h.tests, h.reader, h.publisher)
	h.questionSvc = NewQuestionService(h.questions, h.tests, h.publisher)
	h.users = NewUserTestService(h.reader)
	h.writing = NewWritingGradingService(h.submissions, h.reader, aggregator, h.grader, h.publisher)
	h.submitSvc = NewSubmissionService(h.submissions, h.reader, aggregator, h.writing, h.publisher, cfg).(*submissionService)
	h.submitSvc.runAsync = func(f func()) { f() }
	return h
}

func floatPtr(v float64) *float64 { return &v }

func strPtr(s string) *string { return &s }
