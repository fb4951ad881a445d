package bot

import (
	"fmt"

	"payouts/bot/common"
	"payouts/events"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
)

// Discord color constants
const (
	ColorPrimary = 0x5865F2 // Discord blurple
	ColorSuccess = 0x57F287 // Green
	ColorDanger  = 0xED4245 // Red
	ColorWarning = 0xFEE75C // Yellow
)

func buildMonthProcessedEmbed(e events.MonthProcessedEvent) *discordgo.MessageEmbed {
	var rate *decimal.Decimal
	if parsed, err := decimal.NewFromString(e.CommissionRate); err == nil {
		rate = &parsed
	}

	color := ColorSuccess
	if e.Failed > 0 {
		color = ColorWarning
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Payouts processed for %s", e.Period),
		Description: fmt.Sprintf("Commission rate: **%s**", common.FormatRate(rate)),
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Payable",
				Value:  fmt.Sprintf("%d authors\n**%s**", e.Processed-e.CarriedOver, common.FormatYen(e.TotalPayable)),
				Inline: true,
			},
			{
				Name:   "Carried over",
				Value:  fmt.Sprintf("%d authors\n**%s**", e.CarriedOver, common.FormatYen(e.TotalCarryOver)),
				Inline: true,
			},
			{
				Name:   "Skipped / Failed",
				Value:  fmt.Sprintf("%d / %d", e.Skipped, e.Failed),
				Inline: true,
			},
		},
	}
}

func buildCommissionUnconfiguredEmbed(e events.CommissionUnconfiguredEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("⚠️ No commission rate for %s", e.Period),
		Description: fmt.Sprintf("%d authors were not processed. Add a commission setting covering %s and rerun the month.",
			e.AffectedAuthors, e.Period.LastDay().Format("2006-01-02")),
		Color: ColorDanger,
	}
}

func buildPayoutFailedEmbed(e events.PayoutFailedEvent) *discordgo.MessageEmbed {
	reason := e.Reason
	if reason == "" {
		reason = "no reason given"
	}

	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Payout #%d failed", e.PayoutID),
		Color: ColorDanger,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Author", Value: fmt.Sprintf("%d", e.UserID), Inline: true},
			{Name: "Period", Value: e.Period.String(), Inline: true},
			{Name: "Amount", Value: common.FormatYen(e.Amount), Inline: true},
			{Name: "Reason", Value: reason},
		},
	}
}
