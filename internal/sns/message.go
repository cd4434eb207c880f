// Package sns implements the inbound side of the Amazon SNS HTTP(S)
// protocol: envelope parsing, signature verification against the signing
// certificate SNS references, and the subscription-confirmation handshake.
package sns

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

type MessageType string

const (
	TypeNotification             MessageType = "Notification"
	TypeSubscriptionConfirmation MessageType = "SubscriptionConfirmation"
	TypeUnsubscribeConfirmation  MessageType = "UnsubscribeConfirmation"
)

// DefaultCertHostPattern matches the hosts SNS serves signing certificates
// from. Anything else is treated as a forgery.
var DefaultCertHostPattern = regexp.MustCompile(`^sns\.[a-zA-Z0-9\-]{3,}\.amazonaws\.com(\.cn)?$`)

// Message is the raw SNS envelope as delivered to the HTTP endpoint.
type Message struct {
	Type             MessageType `json:"Type"`
	MessageID        string      `json:"MessageId"`
	Token            string      `json:"Token"`
	TopicArn         string      `json:"TopicArn"`
	Subject          string      `json:"Subject"`
	Message          string      `json:"Message"`
	Timestamp        string      `json:"Timestamp"`
	SignatureVersion string      `json:"SignatureVersion"`
	Signature        string      `json:"Signature"`
	SigningCertURL   string      `json:"SigningCertURL"`
	SubscribeURL     string      `json:"SubscribeURL"`
	UnsubscribeURL   string      `json:"UnsubscribeURL"`
}

// ParseMessage decodes an SNS envelope from a raw request body.
func ParseMessage(body []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("decoding sns envelope: %w", err)
	}
	if m.Type == "" || m.MessageID == "" || m.TopicArn == "" || m.Timestamp == "" {
		return nil, fmt.Errorf("sns envelope missing required fields")
	}
	return &m, nil
}

// stringToSign rebuilds the canonical newline-delimited key/value string SNS
// signed: every signable key present in the envelope, in lexicographic order,
// each followed by its value, every line newline-terminated. The key set is
// derived from the envelope's contents rather than its Type, so envelopes of
// types this system does not act on still verify.
func (m *Message) stringToSign() []byte {
	pairs := [][2]string{
		{"Message", m.Message},
		{"MessageId", m.MessageID},
		{"Subject", m.Subject},
		{"SubscribeURL", m.SubscribeURL},
		{"Timestamp", m.Timestamp},
		{"Token", m.Token},
		{"TopicArn", m.TopicArn},
		{"Type", string(m.Type)},
	}

	var b strings.Builder
	for _, p := range pairs {
		if p[1] == "" {
			continue
		}
		b.WriteString(p[0])
		b.WriteByte('\n')
		b.WriteString(p[1])
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// validateCertURL ensures the signing certificate reference points at a
// trusted origin before anything is fetched from it.
func validateCertURL(raw string, hostPattern *regexp.Regexp) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing signing cert url: %w", err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("signing cert url scheme %q is not https", u.Scheme)
	}
	if !hostPattern.MatchString(u.Hostname()) {
		return fmt.Errorf("signing cert host %q outside allow-list", u.Hostname())
	}
	if !strings.HasSuffix(u.Path, ".pem") {
		return fmt.Errorf("signing cert url %q does not reference a certificate", u.Path)
	}
	return nil
}
