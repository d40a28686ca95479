package channel

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
)

// slackMessageLimit is the largest message chunk posted back to Slack.
const slackMessageLimit = 4000

// SlackChannel integrates with Slack via Socket Mode. It answers direct
// messages and app mentions; mentions are answered in-thread.
type SlackChannel struct {
	client       *slack.Client
	socketClient *socketmode.Client
	botUserID    string
	log          zerolog.Logger
}

// SlackConfig holds Slack credentials.
type SlackConfig struct {
	BotToken string // xoxb-...
	AppToken string // xapp-...
	Logger   zerolog.Logger
}

// NewSlackChannel creates a Slack channel and verifies the credentials.
func NewSlackChannel(cfg SlackConfig) (*SlackChannel, error) {
	if cfg.BotToken == "" || cfg.AppToken == "" {
		return nil, fmt.Errorf("both bot token and app token are required")
	}

	client := slack.New(
		cfg.BotToken,
		slack.OptionAppLevelToken(cfg.AppToken),
	)

	socketClient := socketmode.New(
		client,
		socketmode.OptionDebug(false),
	)

	authResp, err := client.AuthTest()
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	return &SlackChannel{
		client:       client,
		socketClient: socketClient,
		botUserID:    authResp.UserID,
		log:          cfg.Logger.With().Str("component", "slack").Logger(),
	}, nil
}

func (s *SlackChannel) Name() string {
	return "slack"
}

// Run connects in socket mode and dispatches user messages to the
// handler. It returns when the context is cancelled.
func (s *SlackChannel) Run(ctx context.Context, handle Handler) error {
	go func() {
		if err := s.socketClient.RunContext(ctx); err != nil && ctx.Err() == nil {
			s.log.Error().Err(err).Msg("socket client stopped")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt := <-s.socketClient.Events:
			switch evt.Type {
			case socketmode.EventTypeEventsAPI:
				apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
				if !ok {
					continue
				}
				s.socketClient.Ack(*evt.Request)
				s.handleEventsAPI(ctx, apiEvent, handle)

			case socketmode.EventTypeConnecting:
				s.log.Info().Msg("connecting to slack")

			case socketmode.EventTypeConnected:
				s.log.Info().Msg("connected to slack")

			case socketmode.EventTypeConnectionError:
				s.log.Warn().Msg("slack connection error, reconnecting")
			}
		}
	}
}

func (s *SlackChannel) handleEventsAPI(ctx context.Context, event slackevents.EventsAPIEvent, handle Handler) {
	if event.Type != slackevents.CallbackEvent {
		return
	}

	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.AppMentionEvent:
		s.handleMention(ctx, ev, handle)
	case *slackevents.MessageEvent:
		s.handleDirectMessage(ctx, ev, handle)
	}
}

func (s *SlackChannel) handleMention(ctx context.Context, ev *slackevents.AppMentionEvent, handle Handler) {
	text := strings.TrimSpace(strings.ReplaceAll(ev.Text, fmt.Sprintf("<@%s>", s.botUserID), ""))
	if text == "" {
		return
	}

	threadTS := ev.ThreadTimeStamp
	if threadTS == "" {
		threadTS = ev.TimeStamp
	}

	s.log.Info().Str("user", ev.User).Str("channel", ev.Channel).Msg("mention received")
	reply := handle(ctx, ev.User, text)
	s.post(ev.Channel, threadTS, reply)
}

func (s *SlackChannel) handleDirectMessage(ctx context.Context, ev *slackevents.MessageEvent, handle Handler) {
	// Only DMs; mentions in channels arrive as AppMentionEvent.
	if ev.ChannelType != "im" {
		return
	}
	if ev.BotID != "" || ev.User == s.botUserID {
		return
	}

	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return
	}

	s.log.Info().Str("user", ev.User).Msg("direct message received")
	reply := handle(ctx, ev.User, text)
	s.post(ev.Channel, "", reply)
}

// post sends the reply, split into chunks under Slack's message limit.
// An empty threadTS posts to the channel directly.
func (s *SlackChannel) post(channelID, threadTS, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	for _, chunk := range splitMessage(text, slackMessageLimit) {
		opts := []slack.MsgOption{slack.MsgOptionText(chunk, false)}
		if threadTS != "" {
			opts = append(opts, slack.MsgOptionTS(threadTS))
		}
		if _, _, err := s.client.PostMessage(channelID, opts...); err != nil {
			s.log.Error().Err(err).Str("channel", channelID).Msg("failed to post message")
			return
		}
	}
}

// splitMessage breaks text into chunks of at most limit bytes, preferring
// line boundaries.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
