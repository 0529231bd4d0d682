package format

import (
	"testing"

	"github.com/Tonic56/crypto-market-watch/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func TestCurrency(t *testing.T) {
	tests := []struct {
		name string
		in   decimal.NullDecimal
		want string
	}{
		{name: "grouped", in: decimal.NewNullDecimal(decimal.RequireFromString("1234.56")), want: "$1,234.56"},
		{name: "rounded", in: decimal.NewNullDecimal(decimal.RequireFromString("50000")), want: "$50,000.00"},
		{name: "small", in: decimal.NewNullDecimal(decimal.RequireFromString("0.5")), want: "$0.50"},
		{name: "negative", in: decimal.NewNullDecimal(decimal.RequireFromString("-12.3")), want: "-$12.30"},
		{name: "missing", in: decimal.NullDecimal{}, want: "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Currency(tt.in))
		})
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "2.35%", Percent(f(2.345001)))
	assert.Equal(t, "-1.20%", Percent(f(-1.2)))
	assert.Equal(t, "N/A", Percent(nil))
}

func TestLargeNumber(t *testing.T) {
	tests := []struct {
		in   *float64
		want string
	}{
		{in: f(1.5e12), want: "1.50T"},
		{in: f(2.25e9), want: "2.25B"},
		{in: f(21e6), want: "21.00M"},
		{in: f(999999), want: "999,999"},
		{in: nil, want: "N/A"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LargeNumber(tt.in))
	}
}

func TestCoinLine(t *testing.T) {
	coin := models.Coin{
		Name:             "Bitcoin",
		Symbol:           "btc",
		PriceUSD:         decimal.NewNullDecimal(decimal.RequireFromString("50000.123")),
		ChangePercent24h: f(2.35),
	}
	assert.Equal(t, "Bitcoin (BTC)\nPrice: $50000.12 USD | 24h change: 2.35%", CoinLine(coin))

	bare := models.Coin{Name: "Mystery", Symbol: "mys"}
	assert.Equal(t, "Mystery (MYS)\nPrice: $N/A USD | 24h change: N/A%", CoinLine(bare))
}
