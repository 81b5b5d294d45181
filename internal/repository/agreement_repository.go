package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-adp-api/internal/models"
)

// AgreementRepository reads school discount agreements.
type AgreementRepository struct {
	db *sqlx.DB
}

// NewAgreementRepository constructs an AgreementRepository.
func NewAgreementRepository(db *sqlx.DB) *AgreementRepository {
	return &AgreementRepository{db: db}
}

// FindBySchoolID returns the agreement owned by a school. Each school has at most one.
func (r *AgreementRepository) FindBySchoolID(ctx context.Context, schoolID string) (*models.Agreement, error) {
	const query = `SELECT id, school_id, discount_type, discount_value, start_date, end_date, is_active, created_at, updated_at
        FROM agreements WHERE school_id = $1`
	var agreement models.Agreement
	if err := r.db.GetContext(ctx, &agreement, query, schoolID); err != nil {
		return nil, err
	}
	return &agreement, nil
}
