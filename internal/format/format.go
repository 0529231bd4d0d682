// Package format renders market values for display.
package format

import (
	"fmt"
	"strings"

	"github.com/Tonic56/crypto-market-watch/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const NotAvailable = "N/A"

var printer = message.NewPrinter(language.AmericanEnglish)

// Currency formats a USD amount as "$1,234.56".
func Currency(value decimal.NullDecimal) string {
	if !value.Valid {
		return NotAvailable
	}
	return USD(value.Decimal)
}

func USD(value decimal.Decimal) string {
	sign := ""
	if value.IsNegative() {
		sign = "-"
		value = value.Neg()
	}

	amount := printer.Sprint(number.Decimal(value.Round(2).InexactFloat64(), number.Scale(2)))
	return sign + "$" + amount
}

// Percent formats a percentage with two decimals, "2.35%".
func Percent(value *float64) string {
	if value == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.2f%%", *value)
}

// LargeNumber abbreviates trillions, billions and millions. Smaller values
// are grouped by thousands.
func LargeNumber(value *float64) string {
	if value == nil {
		return NotAvailable
	}

	v := *value
	switch {
	case v >= 1e12:
		return fmt.Sprintf("%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	default:
		return printer.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
	}
}

// CoinLine is the two-line list entry shown for a coin.
func CoinLine(coin models.Coin) string {
	price := NotAvailable
	if coin.PriceUSD.Valid {
		price = coin.PriceUSD.Decimal.StringFixed(2)
	}

	change := NotAvailable
	if coin.ChangePercent24h != nil {
		change = fmt.Sprintf("%.2f", *coin.ChangePercent24h)
	}

	return fmt.Sprintf("%s (%s)\nPrice: $%s USD | 24h change: %s%%", coin.Name, strings.ToUpper(coin.Symbol), price, change)
}
