package config

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

// NotificationEvent mirrors the notifications table row. It is published
// best-effort so external delivery channels (email, push) can fan out without
// the core waiting on them.
type NotificationEvent struct {
	UserId        int       `json:"user_id"`
	Type          string    `json:"type"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	MatchId       *int      `json:"match_id,omitempty"`
	CorrelationId string    `json:"correlation_id"`
	CreatedAt     time.Time `json:"created_at"`
}

var (
	pubsubClient   *pubsub.Client
	pubsubClientMu sync.Mutex
)

func init() {
	// Load env from .env
	godotenv.Load()
}

func getPubSubProjectID() string {
	if v := os.Getenv("PUBSUB_PROJECT_ID"); v != "" {
		return v
	}
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		return v
	}
	return ""
}

func getPubSubClient(ctx context.Context) (*pubsub.Client, error) {
	pubsubClientMu.Lock()
	defer pubsubClientMu.Unlock()

	if pubsubClient != nil {
		return pubsubClient, nil
	}

	projectID := getPubSubProjectID()
	if projectID == "" {
		return nil, errors.New("pubsub project id not configured")
	}

	var opts []option.ClientOption
	if credJSON := os.Getenv("PUBSUB_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, err
	}
	pubsubClient = client
	return pubsubClient, nil
}

// PubSubEnabled reports whether notification events should be published.
func PubSubEnabled() bool {
	return os.Getenv("NOTIFICATION_TOPIC") != "" && getPubSubProjectID() != ""
}

// PublishNotificationEvent publishes a notification event to the configured
// topic. Failures are returned for logging only; callers must not let them
// affect the operation that produced the notification.
func PublishNotificationEvent(ctx context.Context, event *NotificationEvent) error {
	topicID := os.Getenv("NOTIFICATION_TOPIC")
	if topicID == "" {
		return nil
	}

	client, err := getPubSubClient(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	topic := client.Topic(topicID)
	result := topic.Publish(ctx, &pubsub.Message{Data: data})

	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err = result.Get(publishCtx)
	return err
}
