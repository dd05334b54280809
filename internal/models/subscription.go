package models

import (
	"time"
)

// Subscription is a directed follow edge from Subscriber to Author
type Subscription struct {
	ID           uint      `gorm:"primarykey"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	AuthorID     uint      `gorm:"not null;uniqueIndex:idx_subscriptions_author_subscriber;check:chk_subscriptions_not_self,author_id <> subscriber_id"`
	Author       User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	SubscriberID uint      `gorm:"not null;uniqueIndex:idx_subscriptions_author_subscriber;index"`
	Subscriber   User      `gorm:"foreignKey:SubscriberID;constraint:OnDelete:CASCADE"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
