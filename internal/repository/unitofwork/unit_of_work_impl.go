package unitofwork

import (
	"context"
	"fmt"

	"research-assistant-be/internal/repository/contract"
	"research-assistant-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB // non-nil between Begin and Commit/Rollback
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	u.tx = tx
	return nil
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) ResearchSessionRepository() contract.ResearchSessionRepository {
	return implementation.NewResearchSessionRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ResearchProjectRepository() contract.ResearchProjectRepository {
	return implementation.NewResearchProjectRepository(u.getDB())
}

func (u *UnitOfWorkImpl) LiteratureSummaryRepository() contract.LiteratureSummaryRepository {
	return implementation.NewLiteratureSummaryRepository(u.getDB())
}

func (u *UnitOfWorkImpl) TreatmentComparisonRepository() contract.TreatmentComparisonRepository {
	return implementation.NewTreatmentComparisonRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ApprovalRequestRepository() contract.ApprovalRequestRepository {
	return implementation.NewApprovalRequestRepository(u.getDB())
}
