package bot

import (
	"context"
	"fmt"

	"payouts/events"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds the admin notifier configuration
type Config struct {
	Token          string
	AdminChannelID string
}

// ChannelSender posts embeds to a channel
type ChannelSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// AdminNotifier posts payout run reports to the admin channel
type AdminNotifier struct {
	channelID string
	sender    ChannelSender
	session   *discordgo.Session
}

// New opens a Discord session for the admin notifier
func New(config Config) (*AdminNotifier, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuildMessages

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	notifier := NewWithSender(config.AdminChannelID, dg)
	notifier.session = dg
	return notifier, nil
}

// NewWithSender creates a notifier posting through sender
func NewWithSender(channelID string, sender ChannelSender) *AdminNotifier {
	return &AdminNotifier{
		channelID: channelID,
		sender:    sender,
	}
}

// Register subscribes the notifier to the admin-facing events
func (n *AdminNotifier) Register(bus *events.Bus) {
	bus.Subscribe(events.EventTypeMonthProcessed, n.handle)
	bus.Subscribe(events.EventTypeCommissionUnconfigured, n.handle)
	bus.Subscribe(events.EventTypePayoutFailed, n.handle)
}

func (n *AdminNotifier) handle(ctx context.Context, event events.Event) {
	if err := n.Notify(event); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"channelID": n.channelID,
			"error":     err,
		}).Error("Failed to post admin notification")
	}
}

// Notify posts the embed for event; unrelated events are ignored
func (n *AdminNotifier) Notify(event events.Event) error {
	var embed *discordgo.MessageEmbed
	switch e := event.(type) {
	case events.MonthProcessedEvent:
		embed = buildMonthProcessedEmbed(e)
	case events.CommissionUnconfiguredEvent:
		embed = buildCommissionUnconfiguredEmbed(e)
	case events.PayoutFailedEvent:
		embed = buildPayoutFailedEmbed(e)
	default:
		return nil
	}

	if _, err := n.sender.ChannelMessageSendEmbed(n.channelID, embed); err != nil {
		return fmt.Errorf("failed to send embed: %w", err)
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"channelID": n.channelID,
	}).Info("Posted admin notification")
	return nil
}

// Close closes the Discord session, if any
func (n *AdminNotifier) Close() error {
	if n.session == nil {
		return nil
	}
	return n.session.Close()
}
