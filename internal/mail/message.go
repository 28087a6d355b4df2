package mail

import (
	"encoding/base64"
	"strings"

	"google.golang.org/api/gmail/v1"
)

// digestOf flattens a full Gmail message into a Digest.
func digestOf(msg *gmail.Message) *Digest {
	return &Digest{
		ID:         msg.Id,
		Subject:    headerValue(msg, "Subject"),
		From:       headerValue(msg, "From"),
		DateHeader: headerValue(msg, "Date"),
		Snippet:    msg.Snippet,
		Body:       decodeBody(msg),
	}
}

// headerValue returns the first header with the given name, case-insensitively,
// or "" when the header (or the whole payload) is absent.
func headerValue(msg *gmail.Message, name string) string {
	if msg == nil || msg.Payload == nil {
		return ""
	}
	for _, h := range msg.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// decodeBody extracts the plaintext body of a message: the first MIME part's
// data when parts exist, the top-level body otherwise. Undecodable bodies
// yield "" rather than an error; the pipeline treats such messages as having
// nothing worth classifying.
func decodeBody(msg *gmail.Message) string {
	if msg == nil || msg.Payload == nil {
		return ""
	}

	data := ""
	if len(msg.Payload.Parts) > 0 {
		if part := msg.Payload.Parts[0]; part.Body != nil {
			data = part.Body.Data
		}
	} else if msg.Payload.Body != nil {
		data = msg.Payload.Body.Data
	}
	if data == "" {
		return ""
	}

	decoded, err := decodeBase64URL(data)
	if err != nil {
		return ""
	}
	return decoded
}

// decodeBase64URL decodes Gmail body data, which is URL-safe base64 usually
// without padding but occasionally with it.
func decodeBase64URL(data string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		b, err = base64.URLEncoding.DecodeString(data)
		if err != nil {
			return "", err
		}
	}
	return string(b), nil
}
