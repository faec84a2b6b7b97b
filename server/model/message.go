package model

import "time"

// TimestampLayout is the stored timestamp format, local time to the second.
const TimestampLayout = "2006-01-02 15:04:05"

// Message is one stored chat line. The text travels as "message" on disk
// and on the wire.
type Message struct {
	Username  string `json:"username"`
	Text      string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func NewMessage(username, text string, now time.Time) Message {
	return Message{
		Username:  username,
		Text:      text,
		Timestamp: now.Format(TimestampLayout),
	}
}

// Last returns the final n messages, or all of them when there are fewer.
// The returned slice shares the backing array with msgs.
func Last(msgs []Message, n int) []Message {
	if n < 0 {
		n = 0
	}
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
