package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/campusdesk/student-portal/internal/config"
	"github.com/campusdesk/student-portal/internal/events"
)

// NotificationService tells the outside world about saved profiles. Email and
// webhook delivery are stubs that only log what would be sent.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to profile events.
func (n *NotificationService) RegisterHandlers() {
	if n == nil || n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventProfileCreated, n.handleProfileSaved)
	n.dispatcher.Subscribe(events.EventProfileUpdated, n.handleProfileSaved)
}

func (n *NotificationService) handleProfileSaved(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ProfileSavedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}

	n.logger.Info("profile saved",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("user_id", event.UserID),
		zap.String("student_id", payload.StudentID),
		zap.Int("batch", payload.Batch),
		zap.String("status", payload.Status),
		zap.Bool("complete", payload.Complete))

	switch {
	case event.Type == events.EventProfileCreated:
		n.sendEmailStub(ctx, event.UserID, "Welcome to the student portal",
			fmt.Sprintf("Your profile for student ID %s was created for batch %d.", payload.StudentID, payload.Batch))
	case !payload.Complete:
		n.sendEmailStub(ctx, event.UserID, "Your profile is incomplete",
			"Add your student ID, discipline, program and CGPA to complete your profile.")
	}
	n.sendWebhookStub(ctx, event, payload)
	return nil
}

func (n *NotificationService) sendEmailStub(_ context.Context, userID, subject, body string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("email notification (stub)",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("user_id", userID),
		zap.String("subject", subject),
		zap.String("body", body))
}

func (n *NotificationService) sendWebhookStub(_ context.Context, event events.Event, payload events.ProfileSavedPayload) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("webhook notification (stub)",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event_type", string(event.Type)),
		zap.String("user_id", event.UserID),
		zap.String("student_id", payload.StudentID),
		zap.Bool("complete", payload.Complete))
}
