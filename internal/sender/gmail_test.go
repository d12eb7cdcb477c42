package sender

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetbite/vendorhub/internal/config"
)

func gmailServer(t *testing.T, sendStatus int, sendBody string, raw *string) (*httptest.Server, *int32) {
	t.Helper()
	var refreshes int32
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshes, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "1//refresh", r.Form.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"ya29.access","token_type":"Bearer","expires_in":3599}`))
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/send", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer ya29.access", r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if raw != nil {
			*raw = body["raw"]
		}
		w.WriteHeader(sendStatus)
		_, _ = w.Write([]byte(sendBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &refreshes
}

func testGmail(srv *httptest.Server) *GmailSender {
	g := NewGmailSender(config.EmailConfig{
		FromName:          "StreetBite",
		Sender:            "hello@streetbite.in",
		GmailClientID:     "client-id",
		GmailClientSecret: "client-secret",
		GmailRefreshToken: "1//refresh",
		GmailAPIBaseURL:   srv.URL,
	})
	return g.WithTokenURL(srv.URL + "/token").WithHTTPClient(srv.Client())
}

func TestGmailSendEmail(t *testing.T) {
	var raw string
	srv, refreshes := gmailServer(t, http.StatusOK, `{"id":"18c2f0a1","threadId":"18c2f0a1"}`, &raw)
	g := testGmail(srv)

	res := g.SendEmail(context.Background(), Email{
		To: "vendor@example.com", ToName: "Asha", Subject: "Menu update", HTML: "<p>Hello Asha</p>",
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "18c2f0a1", res.MessageID)

	msg, err := base64.URLEncoding.DecodeString(raw)
	require.NoError(t, err)
	text := string(msg)
	assert.Contains(t, text, `From: "StreetBite" <hello@streetbite.in>`)
	assert.Contains(t, text, `To: "Asha" <vendor@example.com>`)
	assert.Contains(t, text, "Subject: Menu update")
	assert.Contains(t, text, "Content-Type: text/html")

	parts := strings.SplitN(text, "\r\n\r\n", 2)
	require.Len(t, parts, 2)
	html, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(parts[1], "\r\n", ""))
	require.NoError(t, err)
	assert.Equal(t, "<p>Hello Asha</p>", string(html))

	// A second send mints a fresh token.
	g.SendEmail(context.Background(), Email{To: "vendor@example.com", Subject: "s", HTML: "h"})
	assert.Equal(t, int32(2), atomic.LoadInt32(refreshes))
}

func TestGmailSendEmailRejected(t *testing.T) {
	srv, _ := gmailServer(t, http.StatusForbidden, `{"error":{"code":403,"message":"Insufficient Permission"}}`, nil)

	res := testGmail(srv).SendEmail(context.Background(), Email{To: "vendor@example.com", Subject: "s", HTML: "h"})
	assert.False(t, res.Success)
	assert.Equal(t, "Insufficient Permission", res.Error)
}

func TestGmailTokenRefreshFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	res := testGmail(srv).SendEmail(context.Background(), Email{To: "vendor@example.com", Subject: "s", HTML: "h"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "refreshing gmail access token")
}
