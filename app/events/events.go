// Package events announces blog activity on an in-process watermill bus.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"recipebox/app/config"
	"recipebox/app/models"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// TopicPostCreated carries a PostCreated for every stored post.
const TopicPostCreated = "blog.post_created"

// PostCreated is the payload published after a post is stored.
type PostCreated struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// PostCreatedHandler consumes PostCreated events. A returned error nacks the
// message and it is redelivered.
type PostCreatedHandler func(ctx context.Context, event PostCreated) error

// Bus is a GoChannel pub/sub with a router dispatching to registered handlers.
type Bus struct {
	pubSub *gochannel.GoChannel
	router *message.Router
}

// NewBus creates a bus. Handlers must be registered before Run.
func NewBus(cfg config.Events, logger zerolog.Logger) (*Bus, error) {
	wmLogger := NewLoggerAdapter(logger)

	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.OutputBuffer,
	}, wmLogger)

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create event router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)

	return &Bus{pubSub: pubSub, router: router}, nil
}

// OnPostCreated registers handler under a unique name.
func (b *Bus) OnPostCreated(name string, handler PostCreatedHandler) {
	b.router.AddNoPublisherHandler(name, TopicPostCreated, b.pubSub, func(msg *message.Message) error {
		var event PostCreated
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			// Malformed payloads would be redelivered forever.
			return nil
		}
		return handler(msg.Context(), event)
	})
}

// PublishPostCreated announces post. Delivery to handlers is asynchronous.
func (b *Bus) PublishPostCreated(ctx context.Context, post *models.Post) error {
	payload, err := json.Marshal(PostCreated{
		ID:        post.ID,
		Title:     post.Title,
		Author:    post.Author,
		CreatedAt: post.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal post created: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(context.WithoutCancel(ctx))
	if err := b.pubSub.Publish(TopicPostCreated, msg); err != nil {
		return fmt.Errorf("publish post created: %w", err)
	}
	return nil
}

// Run dispatches messages until ctx is done or Close is called.
func (b *Bus) Run(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running is closed once Run has subscribed every handler.
func (b *Bus) Running() chan struct{} {
	return b.router.Running()
}

// Close stops the router and the pub/sub.
func (b *Bus) Close() error {
	var result *multierror.Error
	if err := b.router.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close event router: %w", err))
	}
	if err := b.pubSub.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close event pubsub: %w", err))
	}
	return result.ErrorOrNil()
}
