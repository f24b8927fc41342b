package usecase

import (
	"fmt"

	"crmhub-backend/internal/platform"
)

// DeriveThreadKey computes the stable grouping key for a message. The key is
// stored on the row at ingest time, so later fetches of the same conversation
// land in the same thread regardless of fetch order.
//
// Priority: the platform's native thread id wins, then the conversation
// channel, then a flat per-contact thread. All variants embed the platform so
// threads never merge across platforms.
func DeriveThreadKey(contactID string, message platform.Message) string {
	var native, channel string
	if message.Meta != nil {
		if key, ok := message.Meta.NativeThreadKey(); ok {
			native = key
		}
		if ch, ok := message.Meta.Channel(); ok {
			channel = ch
		}
	}

	switch {
	case native != "" && channel != "":
		// Chat reply threads are only unique within their channel
		return fmt.Sprintf("%s:c:%s:t:%s", message.Platform, channel, native)
	case native != "":
		return fmt.Sprintf("%s:t:%s", message.Platform, native)
	case channel != "":
		return fmt.Sprintf("%s:c:%s:d:%s", message.Platform, channel, contactID)
	default:
		return fmt.Sprintf("%s:d:%s", message.Platform, contactID)
	}
}
