// Package envelope turns raw trace messages into the structured records shipped
// downstream, and decides which of them are worth shipping.
package envelope

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultEventType    = "TraceEvent"
	DefaultEventID      = "0"
	DefaultProviderName = "TraceForwarder"
)

// DefaultProviderID is a placeholder identity. Callers are expected to override it.
var DefaultProviderID = uuid.MustParse("00000000-1111-2222-3333-444444444444")

// trimSet is stripped from the tail of every message.
const trimSet = " \x00\r\n"

// TraceEnvelope is the unit shipped downstream. The JSON keys are the ones
// existing consumers of the trace stream already parse.
type TraceEnvelope struct {
	Name           string    `json:"Eventname"`
	ProviderName   string    `json:"Eventprovider"`
	ProviderID     uuid.UUID `json:"EventproviderId"`
	SourceName     string    `json:"EventSource"`
	EventID        string    `json:"EventId"`
	EventType      string    `json:"Eventtype"`
	Message        string    `json:"EventMessage"`
	EventTimestamp time.Time `json:"Eventtimestamp"`
	SentTimestamp  time.Time `json:"Senttimestamp"`
}

// TrimMessage removes trailing spaces, NULs, carriage returns and line feeds.
func TrimMessage(message string) string {
	return strings.TrimRight(message, trimSet)
}

// Marshal renders the envelope in its wire form: compact UTF-8 JSON without
// HTML escaping and without a trailing newline.
func Marshal(env TraceEnvelope) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(env); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
