package specification

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type ByResearcher struct {
	ResearcherID string
}

func (s ByResearcher) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("researcher_id = ?", s.ResearcherID)
}

// ByProject is a no-op for an empty project id so callers can pass it unconditionally.
type ByProject struct {
	ProjectID string
}

func (s ByProject) Apply(db *gorm.DB) *gorm.DB {
	if s.ProjectID == "" {
		return db
	}
	return db.Where("project_id = ?", s.ProjectID)
}

type BySession struct {
	SessionID string
}

func (s BySession) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

type BySessionIDs struct {
	SessionIDs []string
}

func (s BySessionIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id IN ?", s.SessionIDs)
}

type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// ContainsFold is a case-insensitive substring match. LOWER/LIKE keeps it
// portable between postgres and sqlite. Empty terms match everything.
type ContainsFold struct {
	Field string
	Term  string
}

func (s ContainsFold) Apply(db *gorm.DB) *gorm.DB {
	term := strings.TrimSpace(s.Term)
	if term == "" {
		return db
	}
	return db.Where("LOWER("+s.Field+") LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(term))+"%")
}

func TreatmentFocusContains(term string) Specification {
	return ContainsFold{Field: "treatment_focus", Term: term}
}

func DiseaseConditionContains(term string) Specification {
	return ContainsFold{Field: "disease_condition", Term: term}
}

type UpdatedBefore struct {
	Cutoff time.Time
}

func (s UpdatedBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("last_updated < ?", s.Cutoff)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
