package push

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lob-api/pkg/config"
)

func newSender(t *testing.T) *Sender {
	t.Helper()
	priv, pub, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)
	return NewSender(config.PushConfig{VAPIDPublicKey: pub, VAPIDPrivateKey: priv, Subscriber: "admin@lob.local"})
}

// browserSubscription mimics the keys a browser hands out on subscribe.
func browserSubscription(t *testing.T, endpoint string) Subscription {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	auth := make([]byte, 16)
	_, err = rand.Read(auth)
	require.NoError(t, err)
	return Subscription{
		Endpoint: endpoint,
		P256dh:   base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		Auth:     base64.RawURLEncoding.EncodeToString(auth),
	}
}

func TestSendReportsGoneSubscription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer server.Close()

	sender := newSender(t)
	err := sender.Send(context.Background(), browserSubscription(t, server.URL), Payload{Title: "2FA", Message: "123456"})
	assert.True(t, errors.Is(err, ErrSubscriptionGone))
}

func TestSendSucceeds(t *testing.T) {
	var gotTTL string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTTL = r.Header.Get("TTL")
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	sender := newSender(t)
	err := sender.Send(context.Background(), browserSubscription(t, server.URL), Payload{Title: "2FA", Message: "123456"})
	require.NoError(t, err)
	assert.Equal(t, "30", gotTTL)
}

func TestDisabledWithoutKeys(t *testing.T) {
	sender := NewSender(config.PushConfig{})
	assert.False(t, sender.Enabled())
	assert.Error(t, sender.Send(context.Background(), Subscription{}, Payload{}))
}
