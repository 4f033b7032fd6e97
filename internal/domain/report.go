package domain

import "time"

type Report struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint64    `gorm:"index;not null" json:"userId"`
	Name        string    `gorm:"uniqueIndex;size:200;not null" json:"name"`
	Description string    `gorm:"type:text;not null" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	CreatedBy   string    `gorm:"size:191" json:"-"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"-"`
	UpdatedBy   string    `gorm:"size:191" json:"-"`
}

func (Report) TableName() string { return "reports" }

// ReportView is the shape served to clients and stored in the cache.
type ReportView struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (r *Report) View() ReportView {
	return ReportView{ID: r.ID, Name: r.Name, Description: r.Description, CreatedAt: r.CreatedAt}
}
