package specification

import "gorm.io/gorm"

// SessionByStatus filters translation sessions by lifecycle status.
type SessionByStatus struct {
	Status string
}

func (s SessionByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// RecentFirst orders by creation time, newest first.
func RecentFirst() Specification {
	return OrderBy{Field: "created_at", Desc: true}
}
