package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/umo-app/umo/internal/repository"
	"github.com/umo-app/umo/internal/service"
)

var webhookKey = []byte("test-webhook-signing-key")

func webhookSecret() string {
	return "whsec_" + base64.StdEncoding.EncodeToString(webhookKey)
}

func signWebhook(msgID, timestamp string, payload []byte) string {
	mac := hmac.New(sha256.New, webhookKey)
	fmt.Fprintf(mac, "%s.%s.", msgID, timestamp)
	mac.Write(payload)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func webhookTestRouter(t *testing.T) (*gin.Engine, *repository.InMemoryUserRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := repository.NewInMemoryUserRepository()
	userService := service.NewUserService(users, nil)
	controller := NewWebhookController(userService, webhookSecret())
	userController := NewUserController(userService)

	return SetupRouter(nil, nil, nil, nil, controller, userController), users
}

func deliverWebhook(router *gin.Engine, payload string, sign bool, timestamp string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/identity", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("svix-id", "msg_1")
	req.Header.Set("svix-timestamp", timestamp)
	if sign {
		req.Header.Set("svix-signature", signWebhook("msg_1", timestamp, []byte(payload)))
	} else {
		req.Header.Set("svix-signature", "v1,"+base64.StdEncoding.EncodeToString([]byte("forged")))
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const createdPayload = `{
	"type": "user.created",
	"data": {
		"id": "user_abc",
		"first_name": "Ana",
		"last_name": "Silva",
		"image_url": "https://img.example/ana.png",
		"primary_email_address_id": "email_1",
		"email_addresses": [
			{"id": "email_2", "email_address": "old@example.com"},
			{"id": "email_1", "email_address": "ana@example.com"}
		]
	}
}`

func TestWebhook_UserCreated(t *testing.T) {
	router, users := webhookTestRouter(t)

	now := strconv.FormatInt(time.Now().Unix(), 10)
	rec := deliverWebhook(router, createdPayload, true, now)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, users.Count())

	user, err := users.GetByExternalID(context.Background(), "user_abc")
	require.NoError(t, err)
	assert.Equal(t, "Ana Silva", user.FullName)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, "https://img.example/ana.png", user.AvatarURL)

	req := httptest.NewRequest(http.MethodGet, "/api/users/user_abc", nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, req)
	assert.Equal(t, http.StatusOK, getRec.Code)
	assert.Contains(t, getRec.Body.String(), "Ana Silva")
}

func TestWebhook_UserDeleted(t *testing.T) {
	router, users := webhookTestRouter(t)

	now := strconv.FormatInt(time.Now().Unix(), 10)
	require.Equal(t, http.StatusOK, deliverWebhook(router, createdPayload, true, now).Code)
	require.Equal(t, 1, users.Count())

	deleted := `{"type": "user.deleted", "data": {"id": "user_abc"}}`
	rec := deliverWebhook(router, deleted, true, now)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, users.Count())

	// Deleting an unknown user is acknowledged, not retried.
	rec = deliverWebhook(router, deleted, true, now)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhook_InvalidSignatureRejected(t *testing.T) {
	router, users := webhookTestRouter(t)

	now := strconv.FormatInt(time.Now().Unix(), 10)
	rec := deliverWebhook(router, createdPayload, false, now)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, users.Count())
}

func TestWebhook_StaleTimestampRejected(t *testing.T) {
	router, users := webhookTestRouter(t)

	stale := strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)
	rec := deliverWebhook(router, createdPayload, true, stale)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, users.Count())
}

func TestWebhook_UnknownEventTypeIgnored(t *testing.T) {
	router, users := webhookTestRouter(t)

	now := strconv.FormatInt(time.Now().Unix(), 10)
	payload := `{"type": "session.created", "data": {"id": "sess_1"}}`
	rec := deliverWebhook(router, payload, true, now)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, users.Count())
}

func TestVerifyWebhookSignature_MultipleCandidates(t *testing.T) {
	payload := []byte(`{"type":"user.created"}`)
	now := time.Now()
	timestamp := strconv.FormatInt(now.Unix(), 10)

	valid := signWebhook("msg_1", timestamp, payload)
	header := "v1,Zm9yZ2Vk " + valid

	err := verifyWebhookSignature(webhookSecret(), "msg_1", timestamp, header, payload, now)
	assert.NoError(t, err)

	err = verifyWebhookSignature(webhookSecret(), "msg_1", timestamp, "v1,Zm9yZ2Vk", payload, now)
	assert.Error(t, err)

	err = verifyWebhookSignature("", "msg_1", timestamp, valid, payload, now)
	assert.Error(t, err)
}
