package main

import (
	"log"

	"github.com/slack-go/slack"
)

// SlackNotifier posts one-line report run summaries to an ops channel.
// It is optional: a nil notifier is valid and does nothing.
type SlackNotifier struct {
	api       *slack.Client
	channelID string
}

func NewSlackNotifier(botToken, channelID string) *SlackNotifier {
	if botToken == "" || channelID == "" {
		return nil
	}
	return &SlackNotifier{api: slack.New(botToken), channelID: channelID}
}

// Notify is best-effort: a failed post is logged and never affects the
// report run or the watermark.
func (n *SlackNotifier) Notify(msg string) {
	if n == nil {
		return
	}
	if _, _, err := n.api.PostMessage(n.channelID, slack.MsgOptionText(msg, false)); err != nil {
		log.Printf("Slack notify error: %v", err)
	}
}
