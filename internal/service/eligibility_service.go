package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-adp-api/internal/models"
	appErrors "github.com/noah-isme/academy-adp-api/pkg/errors"
)

const (
	eligibilityCachePattern = "eligibility:*"
	eligibilityCacheTTL     = 5 * time.Minute
)

// PassingAverage is the minimum competency average for promotion.
var PassingAverage = decimal.NewFromInt(51)

type competencyScoreReader interface {
	LatestCompetencyScores(ctx context.Context, courseID string) ([]models.CompetencyScore, error)
}

type eligibleStudentReader interface {
	ListEligibleForCourse(ctx context.Context, courseID string, prerequisiteID *string) ([]models.Student, error)
}

type eligibilityCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// EligibilityService answers which students may be promoted out of, or enrolled into, a course.
type EligibilityService struct {
	courses  courseReader
	grades   competencyScoreReader
	students eligibleStudentReader
	cache    eligibilityCache
	ttl      time.Duration
	logger   *zap.Logger
}

// NewEligibilityService constructs an EligibilityService. cache may be nil.
func NewEligibilityService(courses courseReader, grades competencyScoreReader, students eligibleStudentReader, cache eligibilityCache, ttl time.Duration, logger *zap.Logger) *EligibilityService {
	if ttl <= 0 {
		ttl = eligibilityCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{courses: courses, grades: grades, students: students, cache: cache, ttl: ttl, logger: logger}
}

// EligibleCandidates lists enrollments of the course whose core competency average reaches PassingAverage.
// Missing competencies count as zero.
func (s *EligibilityService) EligibleCandidates(ctx context.Context, courseID string) ([]models.EligibleCandidate, error) {
	if _, err := s.loadCourse(ctx, courseID); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("eligibility:candidates:%s", courseID)
	var cached []models.EligibleCandidate
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	scores, err := s.grades.LatestCompetencyScores(ctx, courseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load competency scores")
	}

	candidates := averageByEnrollment(scores)
	eligible := make([]models.EligibleCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Average.GreaterThanOrEqual(PassingAverage) {
			eligible = append(eligible, candidate)
		}
	}

	s.toCache(ctx, key, eligible)
	return eligible, nil
}

// EligibleStudents lists active students that may enroll into the course: prerequisite passed and
// no live enrollment in it.
func (s *EligibilityService) EligibleStudents(ctx context.Context, courseID string) ([]models.Student, error) {
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("eligibility:students:%s", courseID)
	var cached []models.Student
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	students, err := s.students.ListEligibleForCourse(ctx, course.ID, course.PreviousCourseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list eligible students")
	}
	if students == nil {
		students = []models.Student{}
	}

	s.toCache(ctx, key, students)
	return students, nil
}

func (s *EligibilityService) loadCourse(ctx context.Context, courseID string) (*models.Course, error) {
	if courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidRequest, "courseId is required")
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}
	return course, nil
}

func (s *EligibilityService) fromCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Debug("eligibility cache unavailable", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *EligibilityService) toCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Debug("eligibility cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// averageByEnrollment sums the latest core competency values per enrollment and divides by the
// fixed competency count. Output keeps the order in which enrollments first appear.
func averageByEnrollment(scores []models.CompetencyScore) []models.EligibleCandidate {
	core := make(map[models.EvaluationType]struct{}, len(models.CoreCompetencies))
	for _, c := range models.CoreCompetencies {
		core[c] = struct{}{}
	}

	index := make(map[string]int)
	sums := make([]decimal.Decimal, 0)
	candidates := make([]models.EligibleCandidate, 0)
	for _, score := range scores {
		if _, ok := core[score.EvaluationType]; !ok {
			continue
		}
		i, ok := index[score.EnrollmentID]
		if !ok {
			i = len(candidates)
			index[score.EnrollmentID] = i
			candidates = append(candidates, models.EligibleCandidate{
				StudentID:    score.StudentID,
				StudentName:  score.StudentName,
				EnrollmentID: score.EnrollmentID,
			})
			sums = append(sums, decimal.Zero)
		}
		sums[i] = sums[i].Add(score.Value)
	}

	divisor := decimal.NewFromInt(models.CoreCompetencyCount)
	for i := range candidates {
		candidates[i].Average = sums[i].Div(divisor).Round(pricePrecision)
	}
	return candidates
}
