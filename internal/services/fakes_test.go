package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/config"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/events"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/metrics"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/models"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/repositories"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/validator"
)

// fakeStore is an in-memory stand-in for postgres with the same uniqueness rules
type fakeStore struct {
	mu sync.Mutex

	nextID      uint
	assessments map[uint]*models.Assessment
	submissions map[uint]*models.Submission
	answers     map[string]*models.Answer
	rewards     map[string]*models.RewardActivity
	roles       map[string]models.UserRole

	// failure injection
	failCatalog        error
	failUpdatePosition error
	failMarkSubmitted  error
	failAnswerUpsert   error
	failRewardCreate   error
	failRewardExists   error

	markSubmittedCalls  int
	rewardCreateCalls   int
	updatePositionCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		assessments: map[uint]*models.Assessment{},
		submissions: map[uint]*models.Submission{},
		answers:     map[string]*models.Answer{},
		rewards:     map[string]*models.RewardActivity{},
		roles:       map[string]models.UserRole{},
	}
}

func (s *fakeStore) id() uint {
	s.nextID++
	return s.nextID
}

func answerKey(userID string, assessmentID, questionID uint) string {
	return fmt.Sprintf("%s/%d/%d", userID, assessmentID, questionID)
}

func rewardKey(userID, categoryID string, assessmentID uint) string {
	return fmt.Sprintf("%s/%s/%d", userID, categoryID, assessmentID)
}

// addAssessment stores a and assigns ids to it and its questions
func (s *fakeStore) addAssessment(a *models.Assessment) *models.Assessment {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	for i := range a.Questions {
		a.Questions[i].ID = s.id()
		a.Questions[i].AssessmentID = a.ID
		for j := range a.Questions[i].Options {
			a.Questions[i].Options[j].ID = s.id()
			a.Questions[i].Options[j].QuestionID = a.Questions[i].ID
		}
	}
	s.assessments[a.ID] = a
	return a
}

func (s *fakeStore) setStatus(assessmentID uint, status models.AssessmentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assessments[assessmentID].Status = status
}

func (s *fakeStore) submission(userID string, assessmentID uint) *models.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.submissions {
		if sub.UserID == userID && sub.AssessmentID == assessmentID {
			c := *sub
			return &c
		}
	}
	return nil
}

func (s *fakeStore) answerCount(userID string, assessmentID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.answers {
		if a.UserID == userID && a.AssessmentID == assessmentID {
			n++
		}
	}
	return n
}

func (s *fakeStore) rewardCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rewards)
}

// ===== Repository =====

type fakeRepo struct {
	store *fakeStore
}

func newFakeRepo(store *fakeStore) *fakeRepo {
	return &fakeRepo{store: store}
}

func (r *fakeRepo) Assessment() repositories.AssessmentRepository { return &fakeAssessmentRepo{r.store} }
func (r *fakeRepo) Submission() repositories.SubmissionRepository { return &fakeSubmissionRepo{r.store} }
func (r *fakeRepo) Answer() repositories.AnswerRepository         { return &fakeAnswerRepo{r.store} }
func (r *fakeRepo) Reward() repositories.RewardRepository         { return &fakeRewardRepo{r.store} }
func (r *fakeRepo) Results() repositories.ResultsRepository       { return &fakeResultsRepo{r.store} }
func (r *fakeRepo) User() repositories.UserRepository             { return &fakeUserRepo{r.store} }

func (r *fakeRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}

func (r *fakeRepo) Ping(ctx context.Context) error { return nil }
func (r *fakeRepo) Close() error                   { return nil }

// ===== Assessments =====

type fakeAssessmentRepo struct{ s *fakeStore }

func (f *fakeAssessmentRepo) Create(ctx context.Context, tx *gorm.DB, a *models.Assessment) error {
	f.s.addAssessment(a)
	return nil
}

func (f *fakeAssessmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.assessments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *a
	c.Questions = nil
	return &c, nil
}

func (f *fakeAssessmentRepo) GetCatalog(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failCatalog != nil {
		return nil, f.s.failCatalog
	}
	a, ok := f.s.assessments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *a
	c.Questions = make([]models.Question, len(a.Questions))
	for i, q := range a.Questions {
		q.Options = append([]models.QuestionOption(nil), q.Options...)
		c.Questions[i] = q
	}
	return &c, nil
}

func (f *fakeAssessmentRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.Assessment
	for _, a := range f.s.assessments {
		if filters.Kind != nil && a.Kind != *filters.Kind {
			continue
		}
		c := *a
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeAssessmentRepo) InvalidateCatalog(ctx context.Context, id uint) {}

// ===== Submissions =====

type fakeSubmissionRepo struct{ s *fakeStore }

func (f *fakeSubmissionRepo) find(userID string, assessmentID uint) *models.Submission {
	for _, sub := range f.s.submissions {
		if sub.UserID == userID && sub.AssessmentID == assessmentID {
			return sub
		}
	}
	return nil
}

func (f *fakeSubmissionRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, submission *models.Submission) (*models.Submission, bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if existing := f.find(submission.UserID, submission.AssessmentID); existing != nil {
		c := *existing
		return &c, false, nil
	}
	stored := *submission
	stored.ID = f.s.id()
	f.s.submissions[stored.ID] = &stored
	c := stored
	return &c, true, nil
}

func (f *fakeSubmissionRepo) CreateSubmitted(ctx context.Context, tx *gorm.DB, submission *models.Submission) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.find(submission.UserID, submission.AssessmentID) != nil {
		return false, nil
	}
	submission.ID = f.s.id()
	stored := *submission
	f.s.submissions[stored.ID] = &stored
	return true, nil
}

func (f *fakeSubmissionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	sub, ok := f.s.submissions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *sub
	return &c, nil
}

func (f *fakeSubmissionRepo) GetForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error) {
	return f.GetByID(ctx, tx, id)
}

func (f *fakeSubmissionRepo) GetByUserAndAssessment(ctx context.Context, tx *gorm.DB, userID string, assessmentID uint) (*models.Submission, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	sub := f.find(userID, assessmentID)
	if sub == nil {
		return nil, repositories.ErrNotFound
	}
	c := *sub
	return &c, nil
}

func (f *fakeSubmissionRepo) UpdatePosition(ctx context.Context, tx *gorm.DB, id uint, questionOrder int) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.updatePositionCalls++
	if f.s.failUpdatePosition != nil {
		return f.s.failUpdatePosition
	}
	sub, ok := f.s.submissions[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if sub.IsSubmitted() {
		return repositories.ErrNotInProgress
	}
	order := questionOrder
	sub.CurrentQuestionOrder = &order
	return nil
}

func (f *fakeSubmissionRepo) MarkSubmitted(ctx context.Context, tx *gorm.DB, id uint, submittedAt time.Time, lastQuestionOrder *int) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.markSubmittedCalls++
	if f.s.failMarkSubmitted != nil {
		return false, f.s.failMarkSubmitted
	}
	sub, ok := f.s.submissions[id]
	if !ok {
		return false, repositories.ErrNotFound
	}
	if sub.IsSubmitted() {
		return false, nil
	}
	sub.State = models.SubmissionSubmitted
	sub.SubmittedAt = &submittedAt
	sub.CurrentQuestionOrder = lastQuestionOrder
	return true, nil
}

func (f *fakeSubmissionRepo) list(match func(*models.Submission) bool) []*models.Submission {
	var out []*models.Submission
	for _, sub := range f.s.submissions {
		if match(sub) {
			c := *sub
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeSubmissionRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := f.list(func(s *models.Submission) bool { return s.UserID == userID })
	return out, int64(len(out)), nil
}

// ===== Answers =====

type fakeAnswerRepo struct{ s *fakeStore }

func (f *fakeAnswerRepo) Upsert(ctx context.Context, tx *gorm.DB, answer *models.Answer) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failAnswerUpsert != nil {
		return f.s.failAnswerUpsert
	}
	key := answerKey(answer.UserID, answer.AssessmentID, answer.QuestionID)
	if existing, ok := f.s.answers[key]; ok {
		answer.ID = existing.ID
		answer.CreatedAt = existing.CreatedAt
	} else {
		answer.ID = f.s.id()
		answer.CreatedAt = time.Now()
	}
	answer.UpdatedAt = time.Now()
	c := *answer
	f.s.answers[key] = &c
	return nil
}

func (f *fakeAnswerRepo) CreateBatch(ctx context.Context, tx *gorm.DB, answers []*models.Answer) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, a := range answers {
		key := answerKey(a.UserID, a.AssessmentID, a.QuestionID)
		if _, ok := f.s.answers[key]; ok {
			return gorm.ErrDuplicatedKey
		}
		a.ID = f.s.id()
		c := *a
		f.s.answers[key] = &c
	}
	return nil
}

func (f *fakeAnswerRepo) GetByQuestion(ctx context.Context, tx *gorm.DB, userID string, assessmentID, questionID uint) (*models.Answer, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.answers[answerKey(userID, assessmentID, questionID)]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (f *fakeAnswerRepo) ListByUserAndAssessment(ctx context.Context, tx *gorm.DB, userID string, assessmentID uint) ([]*models.Answer, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.Answer
	for _, a := range f.s.answers {
		if a.UserID == userID && a.AssessmentID == assessmentID {
			c := *a
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

// ===== Rewards =====

type fakeRewardRepo struct{ s *fakeStore }

func (f *fakeRewardRepo) CreateIfAbsent(ctx context.Context, tx *gorm.DB, reward *models.RewardActivity) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.rewardCreateCalls++
	if f.s.failRewardCreate != nil {
		return false, f.s.failRewardCreate
	}
	key := rewardKey(reward.UserID, reward.CategoryID, reward.AssessmentID)
	if _, ok := f.s.rewards[key]; ok {
		return false, nil
	}
	reward.ID = f.s.id()
	reward.CreatedAt = time.Now()
	c := *reward
	f.s.rewards[key] = &c
	return true, nil
}

func (f *fakeRewardRepo) Exists(ctx context.Context, tx *gorm.DB, userID, categoryID string, assessmentID uint) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failRewardExists != nil {
		return false, f.s.failRewardExists
	}
	_, ok := f.s.rewards[rewardKey(userID, categoryID, assessmentID)]
	return ok, nil
}

func (f *fakeRewardRepo) Get(ctx context.Context, tx *gorm.DB, userID, categoryID string, assessmentID uint) (*models.RewardActivity, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	r, ok := f.s.rewards[rewardKey(userID, categoryID, assessmentID)]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *r
	return &c, nil
}

func (f *fakeRewardRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.RewardFilters) ([]*models.RewardActivity, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.RewardActivity
	for _, r := range f.s.rewards {
		if r.UserID == userID {
			c := *r
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

// ===== Results =====

type fakeResultsRepo struct{ s *fakeStore }

func (f *fakeResultsRepo) SubmissionSummaries(ctx context.Context, assessmentID uint, categoryID string, filters repositories.SubmissionFilters) ([]models.SubmissionSummary, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var all []models.SubmissionSummary
	for _, sub := range f.s.submissions {
		if sub.AssessmentID != assessmentID {
			continue
		}
		var count int64
		for _, a := range f.s.answers {
			if a.SubmissionID == sub.ID {
				count++
			}
		}
		_, rewarded := f.s.rewards[rewardKey(sub.UserID, categoryID, assessmentID)]
		all = append(all, models.SubmissionSummary{
			SubmissionID: sub.ID,
			AssessmentID: sub.AssessmentID,
			UserID:       sub.UserID,
			State:        sub.State,
			StartedAt:    sub.StartedAt,
			SubmittedAt:  sub.SubmittedAt,
			ScorePercent: sub.ScorePercent,
			AnswerCount:  count,
			RewardIssued: rewarded,
		})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SubmissionID < all[j].SubmissionID })

	total := int64(len(all))
	start := min(filters.Offset, len(all))
	end := len(all)
	if filters.Limit > 0 {
		end = min(start+filters.Limit, len(all))
	}
	return all[start:end], total, nil
}

// ===== Users =====

type fakeUserRepo struct{ s *fakeStore }

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	role, ok := f.s.roles[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &models.User{ID: id, Role: role}, nil
}

func (f *fakeUserRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	_, ok := f.s.roles[id]
	return ok, nil
}

func (f *fakeUserRepo) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.s.roles[id] == role, nil
}

// ===== Fixtures =====

const testCategory = "assessment_completion"

type testEnv struct {
	store     *fakeStore
	repo      *fakeRepo
	publisher *events.MockEventPublisher
	metrics   *metrics.Metrics
	manager   ServiceManager
}

func newTestEnv() *testEnv {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newFakeStore()
	repo := newFakeRepo(store)
	publisher := events.NewMockEventPublisher(logger)
	m := metrics.New()

	manager := NewServiceManager(Dependencies{
		Repo:      repo,
		Logger:    logger,
		Validator: validator.New(),
		Publisher: publisher,
		Metrics:   m,
	}, ServiceManagerConfig{
		Reward: config.RewardConfig{CategoryID: testCategory, QuizPassingScore: 70},
	})
	if err := manager.Initialize(context.Background()); err != nil {
		panic(err)
	}

	return &testEnv{store: store, repo: repo, publisher: publisher, metrics: m, manager: manager}
}

func intPtr(i int) *int { return &i }

func itoa(id uint) string { return fmt.Sprintf("%d", id) }

func ratingOptions(values ...int) []models.QuestionOption {
	opts := make([]models.QuestionOption, len(values))
	for i, v := range values {
		opts[i] = models.QuestionOption{Label: fmt.Sprintf("%d", v), OrderIndex: i, RatingValue: intPtr(v)}
	}
	return opts
}

func choiceOptions(labels ...string) []models.QuestionOption {
	opts := make([]models.QuestionOption, len(labels))
	for i, l := range labels {
		opts[i] = models.QuestionOption{Label: l, OrderIndex: i, OptionIndex: intPtr(i)}
	}
	return opts
}

// seedQuestionnaire stores a published questionnaire: rating, text, rating (orders 10, 20, 30)
func (e *testEnv) seedQuestionnaire() *models.Assessment {
	return e.store.addAssessment(&models.Assessment{
		Title:      "Weekly reflection",
		Kind:       models.KindQuestionnaire,
		PointValue: 25,
		Status:     models.StatusPublished,
		Questions: []models.Question{
			{OrderIndex: 30, Prompt: "Energy level", Type: models.QuestionRating, Options: ratingOptions(1, 2, 3)},
			{OrderIndex: 10, Prompt: "How was your week?", Type: models.QuestionRating, Options: ratingOptions(1, 2, 3, 4, 5)},
			{OrderIndex: 20, Prompt: "Something good that happened", Type: models.QuestionText},
		},
	})
}

// seedQuiz stores a published quiz with n questions whose correct option is 1
func (e *testEnv) seedQuiz(n int, from, until *time.Time) *models.Assessment {
	questions := make([]models.Question, n)
	for i := range questions {
		questions[i] = models.Question{
			OrderIndex:         i,
			Prompt:             fmt.Sprintf("Question %d", i+1),
			Type:               models.QuestionMultipleChoice,
			CorrectOptionIndex: intPtr(1),
			Options:            choiceOptions("a", "b", "c"),
		}
	}
	return e.store.addAssessment(&models.Assessment{
		Title:          "Gratitude quiz",
		Kind:           models.KindQuiz,
		PointValue:     50,
		Status:         models.StatusPublished,
		AvailableFrom:  from,
		AvailableUntil: until,
		Questions:      questions,
	})
}
