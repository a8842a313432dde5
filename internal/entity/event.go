package entity

import "time"

type Event struct {
	Base

	Name        string `gorm:"unique"`
	Description string

	CreatedBy     string
	CreatedByUser User `gorm:"foreignKey:CreatedBy"`

	// Outside of [StartedAt, EndedAt) every claim is rejected before any
	// proof verification happens.
	StartedAt time.Time
	EndedAt   time.Time
	Active    bool
}
