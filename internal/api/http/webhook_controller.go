package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/umo-app/umo/internal/service"
)

// webhookTolerance bounds how stale a signed webhook timestamp may be.
const webhookTolerance = 5 * time.Minute

type WebhookController struct {
	users  service.UserInteractor
	secret string
}

func NewWebhookController(users service.UserInteractor, secret string) *WebhookController {
	return &WebhookController{users: users, secret: secret}
}

type identityEvent struct {
	Type string `json:"type"`
	Data struct {
		ID                    string `json:"id"`
		FirstName             string `json:"first_name"`
		LastName              string `json:"last_name"`
		ImageURL              string `json:"image_url"`
		PrimaryEmailAddressID string `json:"primary_email_address_id"`
		EmailAddresses        []struct {
			ID           string `json:"id"`
			EmailAddress string `json:"email_address"`
		} `json:"email_addresses"`
	} `json:"data"`
}

func (e *identityEvent) fullName() string {
	return strings.TrimSpace(strings.TrimSpace(e.Data.FirstName) + " " + strings.TrimSpace(e.Data.LastName))
}

func (e *identityEvent) primaryEmail() string {
	for _, addr := range e.Data.EmailAddresses {
		if addr.ID == e.Data.PrimaryEmailAddressID {
			return addr.EmailAddress
		}
	}
	if len(e.Data.EmailAddresses) > 0 {
		return e.Data.EmailAddresses[0].EmailAddress
	}
	return ""
}

// HandleIdentityEvent mirrors identity provider user events into the local
// users table. The payload signature is verified before anything is parsed.
func (c *WebhookController) HandleIdentityEvent(ctx *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(ctx.Request.Body, 1<<20))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	if err := verifyWebhookSignature(
		c.secret,
		ctx.GetHeader("svix-id"),
		ctx.GetHeader("svix-timestamp"),
		ctx.GetHeader("svix-signature"),
		payload,
		time.Now(),
	); err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook signature"})
		return
	}

	var event identityEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if event.Data.ID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "missing user id"})
		return
	}

	switch event.Type {
	case "user.created", "user.updated":
		err = c.users.SyncUser(ctx.Request.Context(), event.Data.ID, event.fullName(), event.primaryEmail(), event.Data.ImageURL)
	case "user.deleted":
		err = c.users.RemoveUser(ctx.Request.Context(), event.Data.ID)
	default:
		// Unknown event types are acknowledged so the provider stops retrying.
		ctx.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// verifyWebhookSignature checks an HMAC-SHA256 signature over
// "{id}.{timestamp}.{payload}". The signature header may list several
// space-separated "v1,<base64>" candidates; any valid one passes. Timestamps
// outside the tolerance window are rejected to stop replays.
func verifyWebhookSignature(secret, msgID, timestamp, signatureHeader string, payload []byte, now time.Time) error {
	if secret == "" {
		return errors.New("webhook secret is not configured")
	}
	if msgID == "" || timestamp == "" || signatureHeader == "" {
		return errors.New("missing signature headers")
	}

	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp: %w", err)
	}
	sent := time.Unix(unix, 0)
	if diff := now.Sub(sent); diff > webhookTolerance || diff < -webhookTolerance {
		return errors.New("timestamp outside tolerance")
	}

	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, "whsec_"))
	if err != nil {
		return fmt.Errorf("invalid webhook secret: %w", err)
	}

	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%s.%s.", msgID, timestamp)
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, candidate := range strings.Fields(signatureHeader) {
		version, sig, found := strings.Cut(candidate, ",")
		if !found || version != "v1" {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}
	return errors.New("no matching signature")
}
