package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChannel(t *testing.T) {
	tests := []struct {
		input    string
		expected Channel
		wantErr  bool
	}{
		{input: "email", expected: ChannelEmail},
		{input: "sms", expected: ChannelSMS},
		{input: "in_app", expected: ChannelInApp},
		{input: "inApp", expected: ChannelInApp},
		{input: "webhook", expected: ChannelWebhook},
		{input: "slack", expected: ChannelSlack},
		{input: "teams", expected: ChannelTeams},
		{input: "carrier_pigeon", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c, err := ParseChannel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, c)
		})
	}
}

func TestChannel_RoundTrip(t *testing.T) {
	for _, c := range []Channel{ChannelEmail, ChannelSMS, ChannelInApp, ChannelWebhook, ChannelSlack, ChannelTeams} {
		parsed, err := ParseChannel(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
}

func TestChannel_Supported(t *testing.T) {
	assert.True(t, ChannelEmail.Supported())
	assert.True(t, ChannelSMS.Supported())
	assert.True(t, ChannelInApp.Supported())
	assert.True(t, ChannelWebhook.Supported())
	assert.False(t, ChannelSlack.Supported())
	assert.False(t, ChannelTeams.Supported())
}

func TestNotificationPreference_IsMuted(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	muted := &NotificationPreference{UserID: "u1", MuteUntil: &future}
	unmuted := &NotificationPreference{UserID: "u2", MuteUntil: &past}
	never := &NotificationPreference{UserID: "u3"}

	assert.True(t, muted.IsMuted(now))
	assert.False(t, unmuted.IsMuted(now))
	assert.False(t, never.IsMuted(now))
}

func TestNotificationPreference_WantsEventType(t *testing.T) {
	all := &NotificationPreference{UserID: "u1"}
	filtered := &NotificationPreference{UserID: "u2", EventTypes: []string{"billing"}}
	subscribed := &NotificationPreference{UserID: "u3", EventTypes: []string{"billing", EventTypeRiskAlert}}

	assert.True(t, all.WantsEventType(EventTypeRiskAlert))
	assert.False(t, filtered.WantsEventType(EventTypeRiskAlert))
	assert.True(t, subscribed.WantsEventType(EventTypeRiskAlert))
}
