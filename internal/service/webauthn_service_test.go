package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lob-api/internal/models"
	"github.com/noah-isme/lob-api/pkg/cache"
	"github.com/noah-isme/lob-api/pkg/config"
	appErrors "github.com/noah-isme/lob-api/pkg/errors"
)

type stubCredentialStore struct {
	creds []models.WebAuthnCredential
}

func (s *stubCredentialStore) Create(_ context.Context, cred *models.WebAuthnCredential) error {
	s.creds = append(s.creds, *cred)
	return nil
}

func (s *stubCredentialStore) ListByUser(_ context.Context, userID string) ([]models.WebAuthnCredential, error) {
	return s.ListByUsers(context.Background(), []string{userID})
}

func (s *stubCredentialStore) ListByUsers(_ context.Context, userIDs []string) ([]models.WebAuthnCredential, error) {
	var out []models.WebAuthnCredential
	for _, c := range s.creds {
		for _, id := range userIDs {
			if c.UserID == id {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (s *stubCredentialStore) UpdateCounter(context.Context, []byte, uint32, bool) error { return nil }

func (s *stubCredentialStore) Delete(_ context.Context, userID string, id []byte) (bool, error) {
	for i, c := range s.creds {
		if c.UserID == userID && bytes.Equal(c.ID, id) {
			s.creds = append(s.creds[:i], s.creds[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *stubCredentialStore) DeleteAllByUser(_ context.Context, userID string) error {
	kept := s.creds[:0]
	for _, c := range s.creds {
		if c.UserID != userID {
			kept = append(kept, c)
		}
	}
	s.creds = kept
	return nil
}

func newWebAuthnFixture(t *testing.T) (*WebAuthnService, *stubCredentialStore, *CacheService) {
	t.Helper()
	name := "Yubikey"
	store := &stubCredentialStore{creds: []models.WebAuthnCredential{
		{ID: []byte{1, 2, 3}, UserID: "u1", Transports: "usb,nfc", Name: &name, CreatedOn: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: []byte{4, 5, 6}, UserID: "u2"},
	}}
	ceremonies := NewCacheService(cache.NewMemoryStore(), nil, time.Minute, zap.NewNop())
	svc, err := NewWebAuthnService(config.WebAuthnConfig{
		RPID:          "localhost",
		RPDisplayName: "LOB",
		RPOrigins:     []string{"http://localhost:5030"},
	}, store, newStubUserStore(), ceremonies, zap.NewNop())
	require.NoError(t, err)
	return svc, store, ceremonies
}

func TestNewWebAuthnServiceRejectsInvalidConfig(t *testing.T) {
	_, err := NewWebAuthnService(config.WebAuthnConfig{RPID: "localhost"}, &stubCredentialStore{}, newStubUserStore(), nil, nil)
	assert.Error(t, err)
}

func TestBeginRegistrationExcludesExistingCredentials(t *testing.T) {
	svc, _, ceremonies := newWebAuthnFixture(t)
	mail := "alice@lob.local"

	creation, err := svc.BeginRegistration(context.Background(), &models.User{ID: "u1", UserName: "alice", Email: &mail})
	require.NoError(t, err)
	require.Len(t, creation.Response.CredentialExcludeList, 1)
	assert.Equal(t, []byte{1, 2, 3}, []byte(creation.Response.CredentialExcludeList[0].CredentialID))

	var session webauthn.SessionData
	hit, err := ceremonies.Get(context.Background(), attestationKeyPrefix+creation.Response.Challenge.String(), &session)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("u1"), session.UserID)
}

func TestBeginLoginRestrictsToUsers(t *testing.T) {
	svc, _, ceremonies := newWebAuthnFixture(t)

	assertion, err := svc.BeginLogin(context.Background(), []string{"u2"})
	require.NoError(t, err)
	require.Len(t, assertion.Response.AllowedCredentials, 1)
	assert.Equal(t, []byte{4, 5, 6}, []byte(assertion.Response.AllowedCredentials[0].CredentialID))

	var session webauthn.SessionData
	hit, err := ceremonies.Get(context.Background(), assertionKeyPrefix+assertion.Response.Challenge.String(), &session)
	require.NoError(t, err)
	assert.True(t, hit)

	open, err := svc.BeginLogin(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, open.Response.AllowedCredentials)
}

func TestFinishCeremoniesRejectMalformedBodies(t *testing.T) {
	svc, _, _ := newWebAuthnFixture(t)

	_, _, err := svc.FinishLogin(context.Background(), []byte(`{"id":"nope"}`))
	assert.Equal(t, appErrors.ErrBadRequest.Code, appErrorCode(t, err))

	_, err = svc.FinishRegistration(context.Background(), &models.User{ID: "u1"}, []byte(`not json`))
	assert.Equal(t, appErrors.ErrBadRequest.Code, appErrorCode(t, err))
}

func TestListAndDeleteCredentials(t *testing.T) {
	svc, store, _ := newWebAuthnFixture(t)
	ctx := context.Background()

	list, err := svc.ListCredentials(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	encoded := base64.RawURLEncoding.EncodeToString([]byte{1, 2, 3})
	assert.Equal(t, encoded, list[0].ID)
	assert.Equal(t, "Yubikey", list[0].Name)
	assert.Equal(t, "usb,nfc", list[0].Transports)

	err = svc.DeleteCredential(ctx, "u1", "***")
	assert.Equal(t, appErrors.ErrBadRequest.Code, appErrorCode(t, err))

	err = svc.DeleteCredential(ctx, "u2", encoded)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrorCode(t, err))

	require.NoError(t, svc.DeleteCredential(ctx, "u1", encoded))
	require.NoError(t, svc.DeleteAllCredentials(ctx, "u2"))
	assert.Empty(t, store.creds)
}
