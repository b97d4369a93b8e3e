package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Callback action IDs attached to inline keyboard buttons.
const (
	ActionLogin    = "login"
	ActionMyList   = "my_list"
	ActionMainMenu = "main_menu"
)

// MessageRef points at a message the bot has sent.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// String encodes the reference as "<chat_id>:<message_id>".
func (r MessageRef) String() string {
	return strconv.FormatInt(r.ChatID, 10) + ":" + strconv.Itoa(r.MessageID)
}

// IsZero reports whether the reference is unset.
func (r MessageRef) IsZero() bool {
	return r.ChatID == 0 && r.MessageID == 0
}

// ParseMessageRef decodes a reference produced by MessageRef.String.
func ParseMessageRef(s string) (MessageRef, error) {
	chat, msg, ok := strings.Cut(s, ":")
	if !ok {
		return MessageRef{}, fmt.Errorf("%w: message ref %q", ErrInvalidInput, s)
	}
	chatID, err := strconv.ParseInt(chat, 10, 64)
	if err != nil {
		return MessageRef{}, fmt.Errorf("%w: message ref %q", ErrInvalidInput, s)
	}
	messageID, err := strconv.Atoi(msg)
	if err != nil {
		return MessageRef{}, fmt.Errorf("%w: message ref %q", ErrInvalidInput, s)
	}
	return MessageRef{ChatID: chatID, MessageID: messageID}, nil
}

// Button is an inline keyboard button. Exactly one of Action or URL is set.
type Button struct {
	Label  string
	Action string
	URL    string
}

// Keyboard is an inline keyboard laid out in rows.
type Keyboard struct {
	Rows [][]Button
}

// Row appends a row of buttons and returns the keyboard for chaining.
func (k *Keyboard) Row(buttons ...Button) *Keyboard {
	k.Rows = append(k.Rows, buttons)
	return k
}

// OutgoingMessage is a message rendered for the chat transport.
type OutgoingMessage struct {
	Text                  string
	Keyboard              *Keyboard
	ReplyTo               int
	DisableWebPagePreview bool
}

// CallbackData is a parsed inline keyboard callback payload, "<action>[:<arg>]".
type CallbackData struct {
	Action string
	Arg    string
}

// ParseCallbackData splits a callback payload into action and argument.
func ParseCallbackData(data string) CallbackData {
	action, arg, _ := strings.Cut(data, ":")
	return CallbackData{Action: action, Arg: arg}
}

// String encodes the callback payload.
func (c CallbackData) String() string {
	if c.Arg == "" {
		return c.Action
	}
	return c.Action + ":" + c.Arg
}
