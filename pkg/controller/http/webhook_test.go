package http_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	controller "github.com/m-mizutani/tagsmith/pkg/controller/http"
	"github.com/m-mizutani/tagsmith/pkg/domain/model"
)

const webhookSecret = "test-webhook-secret"

type mockPublisher struct {
	mu       sync.Mutex
	triggers []*model.MergeTrigger
	secrets  []*model.SigningSecrets
	called   chan struct{}
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{called: make(chan struct{}, 8)}
}

func (m *mockPublisher) Publish(ctx context.Context, trigger *model.MergeTrigger, secrets *model.SigningSecrets) (*model.PublishResult, error) {
	m.mu.Lock()
	m.triggers = append(m.triggers, trigger)
	m.secrets = append(m.secrets, secrets)
	m.mu.Unlock()
	m.called <- struct{}{}
	return &model.PublishResult{TagCreated: true, TagName: "2024.03.20240315120000"}, nil
}

func (m *mockPublisher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.triggers)
}

func signPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func webhookRequest(body []byte, signature, eventType string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/hooks/github", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Hub-Signature-256", signature)
	}
	req.Header.Set("X-GitHub-Event", eventType)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func mergedReleasePayload() []byte {
	return []byte(`{
  "action": "closed",
  "number": 42,
  "pull_request": {
    "merged": true,
    "head": {"ref": "release/2024.03.20240315120000"},
    "base": {"ref": "main"}
  },
  "repository": {"full_name": "example/service"},
  "sender": {"login": "releaser"}
}`)
}

func testSecretsSource() controller.SecretsSource {
	return func() *model.SigningSecrets {
		return &model.SigningSecrets{
			PrivateKey: []byte("armored key"),
			Passphrase: []byte("passphrase"),
			KeyID:      "0123456789ABCDEF",
		}
	}
}

func TestWebhookHandler_AcceptsReleaseMerge(t *testing.T) {
	publisher := newMockPublisher()
	handler := controller.NewWebhookHandler(webhookSecret, publisher, testSecretsSource())

	body := mergedReleasePayload()
	rec := httptest.NewRecorder()
	handler.Handle(rec, webhookRequest(body, signPayload(webhookSecret, body), "pull_request"))

	gt.Value(t, rec.Code).Equal(http.StatusOK)
	gt.String(t, rec.Body.String()).Contains("accepted")

	select {
	case <-publisher.called:
	case <-time.After(time.Second):
		t.Fatal("publisher was not invoked")
	}

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	gt.Number(t, len(publisher.triggers)).Equal(1)
	gt.Value(t, publisher.triggers[0].Branch).Equal(model.ReleaseBranchRef("release/2024.03.20240315120000"))
	gt.Value(t, publisher.triggers[0].Repository).Equal("example/service")
	gt.Value(t, publisher.secrets[0]).NotNil()
}

func TestWebhookHandler_RejectsBadSignature(t *testing.T) {
	publisher := newMockPublisher()
	handler := controller.NewWebhookHandler(webhookSecret, publisher, testSecretsSource())
	body := mergedReleasePayload()

	tests := []struct {
		name      string
		signature string
	}{
		{name: "missing signature", signature: ""},
		{name: "wrong secret", signature: signPayload("other-secret", body)},
		{name: "tampered body", signature: signPayload(webhookSecret, []byte(`{"action":"x"}`))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.Handle(rec, webhookRequest(body, tt.signature, "pull_request"))

			gt.Value(t, rec.Code).Equal(http.StatusUnauthorized)
			gt.Value(t, publisher.callCount()).Equal(0)
		})
	}
}

func TestWebhookHandler_IgnoresNonReleaseEvents(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		payload   string
	}{
		{
			name:      "push event",
			eventType: "push",
			payload:   `{"ref": "refs/heads/main"}`,
		},
		{
			name:      "pull request opened",
			eventType: "pull_request",
			payload: `{
  "action": "opened",
  "pull_request": {
    "merged": false,
    "head": {"ref": "release/2024.03.20240315120000"}
  }
}`,
		},
		{
			name:      "closed without merge",
			eventType: "pull_request",
			payload: `{
  "action": "closed",
  "pull_request": {
    "merged": false,
    "head": {"ref": "release/2024.03.20240315120000"}
  }
}`,
		},
		{
			name:      "merged feature branch",
			eventType: "pull_request",
			payload: `{
  "action": "closed",
  "pull_request": {
    "merged": true,
    "head": {"ref": "feature/new-parser"}
  }
}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := newMockPublisher()
			handler := controller.NewWebhookHandler(webhookSecret, publisher, testSecretsSource())

			body := []byte(tt.payload)
			rec := httptest.NewRecorder()
			handler.Handle(rec, webhookRequest(body, signPayload(webhookSecret, body), tt.eventType))

			gt.Value(t, rec.Code).Equal(http.StatusOK)
			gt.String(t, rec.Body.String()).Contains("ignored")
			gt.Value(t, publisher.callCount()).Equal(0)
		})
	}
}

func TestWebhookHandler_RejectsInvalidPayload(t *testing.T) {
	publisher := newMockPublisher()
	handler := controller.NewWebhookHandler(webhookSecret, publisher, testSecretsSource())

	body := []byte("not json")
	rec := httptest.NewRecorder()
	handler.Handle(rec, webhookRequest(body, signPayload(webhookSecret, body), "pull_request"))

	gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	gt.Value(t, publisher.callCount()).Equal(0)
}
