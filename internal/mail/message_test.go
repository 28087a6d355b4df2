package mail

import (
	"encoding/base64"
	"testing"

	"google.golang.org/api/gmail/v1"
)

func b64(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func TestHeaderValue(t *testing.T) {
	msg := &gmail.Message{
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "Subject", Value: "Payment received"},
				{Name: "date", Value: "Tue, 3 Jun 2025 10:15:00 +0000"},
			},
		},
	}

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"exact match", "Subject", "Payment received"},
		{"case insensitive", "DATE", "Tue, 3 Jun 2025 10:15:00 +0000"},
		{"missing header", "From", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := headerValue(msg, tt.header); got != tt.want {
				t.Errorf("headerValue(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestHeaderValue_NilPayload(t *testing.T) {
	if got := headerValue(&gmail.Message{}, "Subject"); got != "" {
		t.Errorf("headerValue on nil payload = %q, want empty", got)
	}
}

func TestDecodeBody_FirstPart(t *testing.T) {
	msg := &gmail.Message{
		Payload: &gmail.MessagePart{
			Parts: []*gmail.MessagePart{
				{Body: &gmail.MessagePartBody{Data: b64("INR 250.50 debited from your account")}},
				{Body: &gmail.MessagePartBody{Data: b64("<html>ignored</html>")}},
			},
		},
	}

	got := decodeBody(msg)
	want := "INR 250.50 debited from your account"
	if got != want {
		t.Errorf("decodeBody = %q, want %q", got, want)
	}
}

func TestDecodeBody_TopLevelFallback(t *testing.T) {
	msg := &gmail.Message{
		Payload: &gmail.MessagePart{
			Body: &gmail.MessagePartBody{Data: b64("plain body")},
		},
	}

	if got := decodeBody(msg); got != "plain body" {
		t.Errorf("decodeBody = %q, want %q", got, "plain body")
	}
}

func TestDecodeBody_Garbage(t *testing.T) {
	msg := &gmail.Message{
		Payload: &gmail.MessagePart{
			Body: &gmail.MessagePartBody{Data: "!!! not base64 !!!"},
		},
	}

	if got := decodeBody(msg); got != "" {
		t.Errorf("decodeBody on garbage = %q, want empty", got)
	}
}

func TestDecodeBody_PaddedBase64(t *testing.T) {
	data := base64.URLEncoding.EncodeToString([]byte("padded"))
	msg := &gmail.Message{
		Payload: &gmail.MessagePart{
			Body: &gmail.MessagePartBody{Data: data},
		},
	}

	if got := decodeBody(msg); got != "padded" {
		t.Errorf("decodeBody on padded base64 = %q, want %q", got, "padded")
	}
}
