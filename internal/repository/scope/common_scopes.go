package scope

import "gorm.io/gorm"

func OrderByCreatedDesc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC")
}

func OrderByCreatedAsc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

func OrderByLastUpdatedDesc(db *gorm.DB) *gorm.DB {
	return db.Order("last_updated DESC")
}

// Newest caps a listing at n rows, newest first.
func Newest(n int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return OrderByCreatedDesc(db).Limit(n)
	}
}
