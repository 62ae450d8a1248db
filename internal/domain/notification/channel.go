package notification

import "fmt"

// Channel is a closed set of delivery mechanisms. Adding a channel means
// adding a constant here, a sender interface, and a dispatcher case; the
// compiler flags anything missed.
type Channel int

const (
	ChannelEmail Channel = iota
	ChannelSMS
	ChannelInApp
	ChannelWebhook
	ChannelSlack
	ChannelTeams
)

func (c Channel) String() string {
	switch c {
	case ChannelEmail:
		return "email"
	case ChannelSMS:
		return "sms"
	case ChannelInApp:
		return "in_app"
	case ChannelWebhook:
		return "webhook"
	case ChannelSlack:
		return "slack"
	case ChannelTeams:
		return "teams"
	default:
		return "unknown"
	}
}

// ParseChannel converts a stored channel name into its variant.
func ParseChannel(s string) (Channel, error) {
	switch s {
	case "email":
		return ChannelEmail, nil
	case "sms":
		return ChannelSMS, nil
	case "in_app", "inApp":
		return ChannelInApp, nil
	case "webhook":
		return ChannelWebhook, nil
	case "slack":
		return ChannelSlack, nil
	case "teams":
		return ChannelTeams, nil
	default:
		return 0, fmt.Errorf("unknown notification channel: %q", s)
	}
}

// Supported reports whether this pipeline can deliver on the channel.
// Preferences may name slack/teams, but those integrations live outside the
// alert dispatcher and are skipped silently.
func (c Channel) Supported() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelInApp, ChannelWebhook:
		return true
	default:
		return false
	}
}

// SupportedChannels returns the channels the dispatcher can send on.
func SupportedChannels() []Channel {
	return []Channel{ChannelEmail, ChannelSMS, ChannelInApp, ChannelWebhook}
}
