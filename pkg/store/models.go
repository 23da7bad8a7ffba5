package store

import "time"

// GORM models used for persistence.
type BookModel struct {
	ID          string `gorm:"primaryKey"`
	Title       string `gorm:"not null"`
	Author      string
	Description string
	Tags        string
	Link        string
	File        string
	IsApproved  bool      `gorm:"not null;index"`
	CreatedAt   time.Time `gorm:"not null;index"`
}

type DownloadEventModel struct {
	ID         string `gorm:"primaryKey"`
	BookID     string `gorm:"not null;index"`
	IP         string `gorm:"size:45"`
	UserAgent  string
	Referrer   string
	OccurredAt time.Time `gorm:"not null;index"`
}

type SettingModel struct {
	Key   string `gorm:"primaryKey"`
	Value string
}
