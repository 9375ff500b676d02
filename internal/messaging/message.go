// Package messaging carries runtime messages from page observers to the
// background coordinator. Delivery is best effort: a message nobody is
// listening for is dropped.
package messaging

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// TypeLinkClicked is sent when the user follows a link on a page.
const TypeLinkClicked = "link-clicked"

var (
	ErrNoReceiver = errors.New("no receiver for message")
	ErrDropped    = errors.New("message dropped")
)

// Message is the runtime message schema.
type Message struct {
	Type  string `json:"type"`
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`
}

// LinkClicked builds a link-clicked message.
func LinkClicked(url, title string) Message {
	return Message{Type: TypeLinkClicked, URL: url, Title: title}
}

// Sender delivers a message to the coordinator.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

//go:embed schema/message.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource("message.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("message.schema.json")
	})
	return compiledSchema, compileErr
}

// Decode validates raw against the message schema and decodes it.
func Decode(raw []byte) (Message, error) {
	schema, err := getSchema()
	if err != nil {
		return Message{}, err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return Message{}, fmt.Errorf("parse message: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return Message{}, fmt.Errorf("invalid message: %w", err)
	}

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	return msg, nil
}

// IsNetworkURL reports whether raw is an absolute http or https URL.
func IsNetworkURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}
