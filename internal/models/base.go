package models

import "time"

// Base carries the identity and timestamps shared by every stored record.
type Base struct {
	ID        int64      `bson:"_id" json:"id" gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt" gorm:"autoCreateTime:false"`
	UpdatedAt *time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty" gorm:"autoUpdateTime:false"`
}

func (b *Base) GetID() int64 { return b.ID }

func (b *Base) SetID(id int64) { b.ID = id }

func (b *Base) SetCreatedAt(t time.Time) { b.CreatedAt = t }

func (b *Base) SetUpdatedAt(t time.Time) { b.UpdatedAt = &t }
