package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SourceInfo struct {
	Name string `json:"name"`
}

type NewsArticle struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Body       string      `json:"body"`
	URL        string      `json:"url"`
	ImageURL   *string     `json:"imageurl"`
	SourceInfo *SourceInfo `json:"source_info"`
}

func (a NewsArticle) SourceName() *string {
	if a.SourceInfo == nil || a.SourceInfo.Name == "" {
		return nil
	}
	name := a.SourceInfo.Name
	return &name
}

type Comment struct {
	ID       string `json:"id,omitempty"`
	NewsID   string `json:"newsId"`
	UserID   UserRef `json:"userId"`
	UserName string  `json:"userName"`
	Text     string  `json:"text"`
	Date     int64   `json:"date"`
}

// UserRef is a comment author id. Older records carry it as a JSON number;
// it is always written back as a string.
type UserRef string

func (r *UserRef) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = UserRef(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("userId: %w", err)
	}
	*r = UserRef(n.String())
	return nil
}

// AlertNotification is pushed to the user when a price alert fires.
type AlertNotification struct {
	ID           uuid.UUID       `json:"id"`
	Kind         string          `json:"kind"`
	UserID       uuid.UUID       `json:"userID"`
	AlertID      uint            `json:"alertID,omitempty"`
	Symbol       string          `json:"symbol,omitempty"`
	Direction    Direction       `json:"direction,omitempty"`
	TargetPrice  decimal.Decimal `json:"targetPrice"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	Message      string          `json:"message,omitempty"`
}

const (
	NotificationAlert = "alert"
	NotificationPulse = "pulse"
)
