package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EvaluationType classifies a grade.
type EvaluationType string

const (
	EvaluationSpeaking      EvaluationType = "SPEAKING"
	EvaluationListening     EvaluationType = "LISTENING"
	EvaluationReading       EvaluationType = "READING"
	EvaluationWriting       EvaluationType = "WRITING"
	EvaluationVocabulary    EvaluationType = "VOCABULARY"
	EvaluationGrammar       EvaluationType = "GRAMMAR"
	EvaluationQuiz          EvaluationType = "QUIZ"
	EvaluationExam          EvaluationType = "EXAM"
	EvaluationProject       EvaluationType = "PROJECT"
	EvaluationParticipation EvaluationType = "PARTICIPATION"
)

// CoreCompetencies is the fixed evaluation set used for promotion averaging.
var CoreCompetencies = []EvaluationType{
	EvaluationSpeaking,
	EvaluationListening,
	EvaluationReading,
	EvaluationWriting,
	EvaluationVocabulary,
	EvaluationGrammar,
}

// CoreCompetencyCount is the fixed denominator of the competency average.
// Missing competencies count as zero.
const CoreCompetencyCount = 6

// Grade is one evaluation result of an enrollment.
type Grade struct {
	ID             string          `db:"id" json:"id"`
	EnrollmentID   string          `db:"enrollment_id" json:"enrollment_id"`
	EvaluationType EvaluationType  `db:"evaluation_type" json:"evaluation_type"`
	Value          decimal.Decimal `db:"value" json:"value"`
	Weight         decimal.Decimal `db:"weight" json:"weight"`
	EvaluatedAt    time.Time       `db:"evaluated_at" json:"evaluated_at"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// CompetencyScore is the latest value of one competency for an enrollment.
type CompetencyScore struct {
	StudentID      string          `db:"student_id"`
	StudentName    string          `db:"student_name"`
	EnrollmentID   string          `db:"enrollment_id"`
	EvaluationType EvaluationType  `db:"evaluation_type"`
	Value          decimal.Decimal `db:"value"`
}

// ReportCardStatus is the approval state of a report card.
type ReportCardStatus string

const (
	ReportCardDraft     ReportCardStatus = "DRAFT"
	ReportCardSubmitted ReportCardStatus = "SUBMITTED"
	ReportCardApproved  ReportCardStatus = "APPROVED"
	ReportCardRejected  ReportCardStatus = "REJECTED"
)

// ReportCard summarizes an enrollment for one grading period.
type ReportCard struct {
	ID           string              `db:"id" json:"id"`
	EnrollmentID string              `db:"enrollment_id" json:"enrollment_id"`
	Period       string              `db:"period" json:"period"`
	Status       ReportCardStatus    `db:"status" json:"status"`
	FinalGrade   decimal.NullDecimal `db:"final_grade" json:"final_grade"`
	ApprovedAt   *time.Time          `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt    time.Time           `db:"created_at" json:"created_at"`
}

// EligibleCandidate is a student whose competency average clears the threshold.
type EligibleCandidate struct {
	StudentID    string          `json:"student_id"`
	StudentName  string          `json:"student_name"`
	EnrollmentID string          `json:"enrollment_id"`
	Average      decimal.Decimal `json:"average"`
}
