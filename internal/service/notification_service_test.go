package service

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/campusdesk/student-portal/internal/config"
	"github.com/campusdesk/student-portal/internal/events"
)

func TestNotificationServiceProfileSaved(t *testing.T) {
	cases := []struct {
		name        string
		eventType   events.EventType
		complete    bool
		wantSubject string
	}{
		{name: "created", eventType: events.EventProfileCreated, complete: true, wantSubject: "Welcome to the student portal"},
		{name: "updated incomplete", eventType: events.EventProfileUpdated, complete: false, wantSubject: "Your profile is incomplete"},
		{name: "updated complete", eventType: events.EventProfileUpdated, complete: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			core, logs := observer.New(zap.DebugLevel)
			dispatcher := events.NewInMemoryDispatcher()
			NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{
				EmailFrom:  "noreply@example.com",
				WebhookURL: "http://hooks.local/profile",
			}).RegisterHandlers()

			err := dispatcher.Publish(context.Background(), events.Event{
				ID:      "e1",
				Type:    tc.eventType,
				UserID:  "u1",
				Payload: events.ProfileSavedPayload{StudentID: "S1", Batch: 2025, Status: "active", Complete: tc.complete},
			})
			if err != nil {
				t.Fatalf("Publish() error = %v", err)
			}

			saved := logs.FilterMessage("profile saved").All()
			if len(saved) != 1 || saved[0].ContextMap()["student_id"] != "S1" || saved[0].ContextMap()["complete"] != tc.complete {
				t.Fatalf("unexpected profile log %+v", saved)
			}

			emails := logs.FilterMessage("email notification (stub)").All()
			if tc.wantSubject == "" {
				if len(emails) != 0 {
					t.Fatalf("unexpected email %+v", emails)
				}
			} else if len(emails) != 1 || emails[0].ContextMap()["subject"] != tc.wantSubject {
				t.Fatalf("unexpected emails %+v", emails)
			}

			if logs.FilterMessage("webhook notification (stub)").Len() != 1 {
				t.Fatal("webhook stub not called")
			}
		})
	}
}

func TestNotificationServiceRejectsForeignPayload(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(dispatcher, zap.NewNop(), config.NotificationConfig{}).RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventProfileCreated, Payload: "oops"})
	if err == nil {
		t.Fatal("expected an error for an unexpected payload")
	}
}
