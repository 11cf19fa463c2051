package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/tagsmith/pkg/domain/interfaces"
	"github.com/m-mizutani/tagsmith/pkg/domain/model"
	"github.com/m-mizutani/tagsmith/pkg/utils/async"
)

// SecretsSource supplies a fresh copy of the signing secrets for each
// publication run. Each run clears its copy during cleanup, so copies must
// not be shared.
type SecretsSource func() *model.SigningSecrets

// WebhookHandler handles GitHub pull_request webhooks and starts a tag
// publication run for completed release branch merges.
type WebhookHandler struct {
	secret    string
	publisher interfaces.Publisher
	secrets   SecretsSource
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(secret string, publisher interfaces.Publisher, secrets SecretsSource) *WebhookHandler {
	return &WebhookHandler{
		secret:    secret,
		publisher: publisher,
		secrets:   secrets,
	}
}

// Handle processes webhook requests. The publication pipeline runs
// asynchronously; the webhook responds as soon as the event is accepted.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ctxlog.From(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("Failed to read request body", "error", err)
		writeError(w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("X-Hub-Signature-256")
	if !h.verifySignature(body, signature) {
		logger.Warn("Invalid webhook signature")
		writeError(w, goerr.New("invalid signature"), http.StatusUnauthorized)
		return
	}

	eventType := r.Header.Get("X-GitHub-Event")
	payload, err := github.ParseWebHook(eventType, body)
	if err != nil {
		logger.Error("Failed to parse webhook payload", "error", err)
		writeError(w, goerr.Wrap(err, "invalid JSON payload"), http.StatusBadRequest)
		return
	}

	event, ok := payload.(*github.PullRequestEvent)
	if !ok {
		logger.Info("Ignoring unsupported event type", "event_type", eventType)
		writeStatus(w, "ignored")
		return
	}

	trigger := &model.MergeTrigger{
		Branch:     model.ReleaseBranchRef(event.GetPullRequest().GetHead().GetRef()),
		Merged:     event.GetAction() == "closed" && event.GetPullRequest().GetMerged(),
		Repository: event.GetRepo().GetFullName(),
		Sender:     event.GetSender().GetLogin(),
		PRNumber:   event.GetNumber(),
		ReceivedAt: time.Now(),
	}

	if !trigger.ShouldPublish() {
		logger.Info("Ignoring pull request event",
			"action", event.GetAction(),
			"branch", string(trigger.Branch),
			"merged", trigger.Merged,
		)
		writeStatus(w, "ignored")
		return
	}

	logger.Info("Accepted release merge event",
		"branch", string(trigger.Branch),
		"repository", trigger.Repository,
		"sender", trigger.Sender,
		"pr_number", trigger.PRNumber,
	)

	async.Dispatch(ctx, func(ctx context.Context) error {
		_, err := h.publisher.Publish(ctx, trigger, h.secrets())
		return err
	})

	writeStatus(w, "accepted")
}

// verifySignature verifies the webhook signature
func (h *WebhookHandler) verifySignature(payload []byte, signature string) bool {
	if signature == "" {
		return false
	}

	signature = strings.TrimPrefix(signature, "sha256=")

	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(payload)
	expectedMAC := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expectedMAC))
}

func writeStatus(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": status,
	})
}
