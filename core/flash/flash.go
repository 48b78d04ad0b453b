package flash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrymomot/shadowsession/core/shadow"
)

// FieldName is the session field holding queued flash messages. It belongs
// to the default forced-shadow set, so the queue lives in the store and
// never inflates the client cookie.
const FieldName = "_flashes"

// Default message categories.
const (
	CategoryMessage = "message"
	CategoryError   = "error"
	CategorySuccess = "success"
	CategoryWarning = "warning"
)

// Message is a one-shot notification queued for the next request.
type Message struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Add queues a message under the default category.
func Add(ctx context.Context, sess *shadow.Session, message string) error {
	return AddWithCategory(ctx, sess, CategoryMessage, message)
}

// AddWithCategory queues a message under the given category.
func AddWithCategory(ctx context.Context, sess *shadow.Session, category, message string) error {
	queue, err := peek(ctx, sess)
	if err != nil {
		return err
	}

	queue = append(queue, Message{Category: category, Message: message})
	return sess.Set(ctx, FieldName, queue)
}

// Messages pops all queued messages. The queue is consumed: a second call
// within the same request returns nothing.
func Messages(ctx context.Context, sess *shadow.Session) ([]Message, error) {
	raw, err := sess.Pop(ctx, FieldName)
	if err != nil {
		if errors.Is(err, shadow.ErrFieldNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return convert(raw)
}

// peek reads the queue without consuming it.
func peek(ctx context.Context, sess *shadow.Session) ([]Message, error) {
	raw, err := sess.Get(ctx, FieldName)
	if err != nil {
		if errors.Is(err, shadow.ErrFieldNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return convert(raw)
}

// convert rebuilds typed messages from the generic JSON decoding the session
// routing returns.
func convert(raw any) ([]Message, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("flash: encode queue: %w", err)
	}

	var queue []Message
	if err := json.Unmarshal(data, &queue); err != nil {
		return nil, fmt.Errorf("flash: decode queue: %w", err)
	}
	return queue, nil
}
