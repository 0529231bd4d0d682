package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Coin is one row of the market snapshot cache. The whole table is
// replaced on every successful fetch.
type Coin struct {
	ID               string              `gorm:"primaryKey" json:"id"`
	Symbol           string              `gorm:"not null" json:"symbol"`
	Name             string              `gorm:"not null" json:"name"`
	ImageURL         *string             `json:"image"`
	PriceUSD         decimal.NullDecimal `gorm:"type:decimal(30,12)" json:"current_price"`
	MarketCap        *float64            `json:"market_cap"`
	MarketCapRank    *int                `gorm:"index" json:"market_cap_rank"`
	TotalVolume      *float64            `json:"total_volume"`
	ChangePercent24h *float64            `json:"price_change_percentage_24h"`
	TotalSupply      *float64            `json:"total_supply"`
	MaxSupply        *float64            `json:"max_supply"`
}

func (Coin) TableName() string { return "coins" }

func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	// ExternalSubject is the identity provider's subject for accounts
	// created by external sign-in. Nil for password accounts.
	ExternalSubject *string   `gorm:"uniqueIndex" json:"-"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (User) TableName() string { return "users" }

type FavoriteCoin struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	CoinID    string    `gorm:"primaryKey"`
	CreatedAt time.Time
}

func (FavoriteCoin) TableName() string { return "favorite_coins" }

type Direction string

const (
	DirectionAbove Direction = "above"
	DirectionBelow Direction = "below"
)

// DirectionFor derives the alert direction from the price seen when the
// alert is created. A target equal to the current price counts as below.
func DirectionFor(target, current decimal.Decimal) Direction {
	if target.GreaterThan(current) {
		return DirectionAbove
	}
	return DirectionBelow
}

type PriceAlert struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uuid.UUID       `gorm:"type:uuid;index;not null" json:"userId"`
	Symbol      string          `gorm:"not null" json:"symbol"`
	TargetPrice decimal.Decimal `gorm:"type:decimal(30,12);not null" json:"targetPrice"`
	Direction   Direction       `gorm:"type:varchar(8);not null" json:"direction"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func (PriceAlert) TableName() string { return "price_alerts" }

// Reached reports whether price satisfies the alert threshold.
func (a PriceAlert) Reached(price decimal.Decimal) bool {
	switch a.Direction {
	case DirectionAbove:
		return price.GreaterThanOrEqual(a.TargetPrice)
	case DirectionBelow:
		return price.LessThanOrEqual(a.TargetPrice)
	default:
		return false
	}
}

// FavoriteNews keeps the display fields captured when the article was
// saved. The body is not stored.
type FavoriteNews struct {
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	ArticleID  string    `gorm:"primaryKey" json:"id"`
	Title      string    `gorm:"not null" json:"title"`
	URL        string    `json:"url"`
	ImageURL   *string   `json:"imageUrl"`
	SourceName *string   `json:"source"`
	CreatedAt  time.Time `json:"savedAt"`
}

func (FavoriteNews) TableName() string { return "favorite_news" }

// All lists every persisted model, in creation order.
func All() []any {
	return []any{&Coin{}, &User{}, &FavoriteCoin{}, &PriceAlert{}, &FavoriteNews{}}
}
