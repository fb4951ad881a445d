package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatBalance formats an amount with thousand separators
func FormatBalance(balance int64) string {
	if balance < 0 {
		return "-" + FormatBalance(-balance)
	}

	str := fmt.Sprintf("%d", balance)

	n := len(str)
	if n <= 3 {
		return str
	}

	var result strings.Builder
	for i, digit := range str {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}

	return result.String()
}

// FormatYen formats an amount of yen, e.g. ¥12,345
func FormatYen(amount int64) string {
	if amount < 0 {
		return "-¥" + FormatBalance(-amount)
	}
	return "¥" + FormatBalance(amount)
}

// FormatRate formats a commission percentage, e.g. 12.5%
func FormatRate(rate *decimal.Decimal) string {
	if rate == nil {
		return "not configured"
	}
	return rate.String() + "%"
}

// FormatDiscordTimestamp formats a time as a Discord timestamp that displays in user's local timezone
// Format types: "t" = short time, "T" = long time, "d" = short date, "D" = long date,
// "f" = short date/time, "F" = long date/time, "R" = relative time
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}
