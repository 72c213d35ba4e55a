package notify_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danniel-isiah-libor/talos-io/internal/checkout"
	"github.com/danniel-isiah-libor/talos-io/internal/domain"
	"github.com/danniel-isiah-libor/talos-io/internal/notify"
)

func successFixture() checkout.SuccessNotification {
	return checkout.SuccessNotification{
		Task: domain.Task{
			Sku: "AH1234",
			Profile: domain.Profile{Name: "main"},
		},
		Product:     domain.CartedProduct{SizeLabel: "8.5"},
		ProductName: "Air Max",
		ProfileName: "main",
		Seconds:     "3.52",
		Cookie:      domain.Cookie{Name: "ASP.NET_SessionId", Value: "sess-abc"},
	}
}

func TestNotifySuccessPostsEmbed(t *testing.T) {
	t.Parallel()

	received := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- body
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	notifier := notify.NewWebhookNotifier(srv.URL, nil)
	notifier.NotifySuccess(context.Background(), successFixture())

	select {
	case body := <-received:
		var payload struct {
			Embeds []struct {
				Title  string `json:"title"`
				Fields []struct {
					Name  string `json:"name"`
					Value string `json:"value"`
				} `json:"fields"`
			} `json:"embeds"`
		}
		require.NoError(t, json.Unmarshal(body, &payload))
		require.Len(t, payload.Embeds, 1)
		assert.Equal(t, "checked out", payload.Embeds[0].Title)

		values := map[string]string{}
		for _, f := range payload.Embeds[0].Fields {
			values[f.Name] = f.Value
		}
		assert.Equal(t, "Air Max", values["Product"])
		assert.Equal(t, "8.5", values["Size"])
		assert.Equal(t, "3.52s", values["Checkout Time"])
		assert.Equal(t, "AH1234", values["SKU"])

		// The session cookie never goes to the shared webhook.
		_, hasCookie := values["Cookie"]
		assert.False(t, hasCookie)
	case <-time.After(5 * time.Second):
		t.Fatal("webhook was never delivered")
	}
}

func TestNotifySuccessForwardsCookieToTaskWebhook(t *testing.T) {
	t.Parallel()

	received := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- body
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	// No global webhook configured; only the task's own fires.
	notifier := notify.NewWebhookNotifier("", nil)

	s := successFixture()
	s.Task.AutoCheckout = true
	s.Task.Webhook = srv.URL
	notifier.NotifySuccess(context.Background(), s)

	select {
	case body := <-received:
		assert.Contains(t, string(body), "sess-abc")
	case <-time.After(5 * time.Second):
		t.Fatal("task webhook was never delivered")
	}
}

func TestNotifySuccessWithoutWebhookIsNoOp(t *testing.T) {
	t.Parallel()

	notifier := notify.NewWebhookNotifier("", nil)
	// Must not panic or block.
	notifier.NotifySuccess(context.Background(), successFixture())
}
