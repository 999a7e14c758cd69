package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"civicreport-be/models"

	"github.com/redis/go-redis/v9"
)

const (
	EventStatusChanged = "issue.status_changed"
	EventCommentAdded  = "issue.comment_added"
	EventAdminAction   = "issue.admin_action"
)

// Event is the JSON payload published for every notification.
type Event struct {
	Type       string    `json:"type"`
	IssueID    int64     `json:"issue_id"`
	IssueTitle string    `json:"issue_title"`
	ReporterID int64     `json:"reporter_id"`
	Status     string    `json:"status"`
	AssignedTo *string   `json:"assigned_to,omitempty"`
	CommentID  int64     `json:"comment_id,omitempty"`
	AuthorID   int64     `json:"author_id,omitempty"`
	Action     string    `json:"action,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RedisPublisher publishes events on a redis channel. Delivery to residents
// is left to whoever subscribes.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	now     func() time.Time
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel, now: time.Now}
}

func (p *RedisPublisher) event(kind string, issue *models.Issue) Event {
	return Event{
		Type:       kind,
		IssueID:    issue.ID,
		IssueTitle: issue.Title,
		ReporterID: issue.ReporterID,
		Status:     issue.Status,
		AssignedTo: issue.AssignedTo,
		OccurredAt: p.now().UTC(),
	}
}

func (p *RedisPublisher) StatusChanged(ctx context.Context, issue *models.Issue) error {
	return p.publish(ctx, p.event(EventStatusChanged, issue))
}

func (p *RedisPublisher) CommentAdded(ctx context.Context, issue *models.Issue, comment *models.Comment) error {
	e := p.event(EventCommentAdded, issue)
	e.CommentID = comment.ID
	e.AuthorID = comment.AuthorID
	return p.publish(ctx, e)
}

func (p *RedisPublisher) AdminAction(ctx context.Context, issue *models.Issue, action string) error {
	e := p.event(EventAdminAction, issue)
	e.Action = action
	return p.publish(ctx, e)
}

func (p *RedisPublisher) publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", e.Type, err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s event: %w", e.Type, err)
	}
	return nil
}

// Nop drops every notification.
type Nop struct{}

func (Nop) StatusChanged(context.Context, *models.Issue) error                  { return nil }
func (Nop) CommentAdded(context.Context, *models.Issue, *models.Comment) error { return nil }
func (Nop) AdminAction(context.Context, *models.Issue, string) error            { return nil }
