package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"go.uber.org/zap"

	"github.com/noah-isme/lob-api/internal/dto"
	"github.com/noah-isme/lob-api/internal/models"
	"github.com/noah-isme/lob-api/pkg/config"
	appErrors "github.com/noah-isme/lob-api/pkg/errors"
)

const (
	attestationKeyPrefix = "webauthn:attestation:"
	assertionKeyPrefix   = "webauthn:assertion:"
)

type webAuthnCredentialRepository interface {
	Create(ctx context.Context, cred *models.WebAuthnCredential) error
	ListByUser(ctx context.Context, userID string) ([]models.WebAuthnCredential, error)
	ListByUsers(ctx context.Context, userIDs []string) ([]models.WebAuthnCredential, error)
	UpdateCounter(ctx context.Context, id []byte, signCount uint32, backupState bool) error
	Delete(ctx context.Context, userID string, id []byte) (bool, error)
	DeleteAllByUser(ctx context.Context, userID string) error
}

type webAuthnUserLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type ceremonyStore interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Take(ctx context.Context, key string, dest interface{}) (bool, error)
}

// WebAuthnService runs FIDO2 registration and assertion ceremonies. Ceremony state lives in the
// cache keyed by challenge so any instance can finish a ceremony another one started.
type WebAuthnService struct {
	rp     *webauthn.WebAuthn
	creds  webAuthnCredentialRepository
	users  webAuthnUserLookup
	store  ceremonyStore
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewWebAuthnService constructs the relying party.
func NewWebAuthnService(cfg config.WebAuthnConfig, creds webAuthnCredentialRepository, users webAuthnUserLookup, store ceremonyStore, logger *zap.Logger) (*WebAuthnService, error) {
	rp, err := webauthn.New(&webauthn.Config{
		RPID:          cfg.RPID,
		RPDisplayName: cfg.RPDisplayName,
		RPOrigins:     cfg.RPOrigins,
	})
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.CeremonyTTL
	if ttl <= 0 {
		ttl = 3 * time.Minute
	}
	return &WebAuthnService{rp: rp, creds: creds, users: users, store: store, ttl: ttl, logger: logger, now: time.Now}, nil
}

// BeginRegistration returns credential creation options for the user, excluding authenticators
// already registered.
func (s *WebAuthnService) BeginRegistration(ctx context.Context, user *models.User) (*protocol.CredentialCreation, error) {
	wu, err := s.loadUser(ctx, user)
	if err != nil {
		return nil, err
	}
	exclusions := make([]protocol.CredentialDescriptor, 0, len(wu.Credentials))
	for _, c := range wu.WebAuthnCredentials() {
		exclusions = append(exclusions, c.Descriptor())
	}
	creation, session, err := s.rp.BeginRegistration(wu,
		webauthn.WithExclusions(exclusions),
		webauthn.WithResidentKeyRequirement(protocol.ResidentKeyRequirementRequired),
	)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin webauthn registration")
	}
	if err := s.store.Set(ctx, attestationKeyPrefix+session.Challenge, session, s.ttl); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store webauthn session")
	}
	return creation, nil
}

// FinishRegistration verifies the attestation response and stores the new credential.
func (s *WebAuthnService) FinishRegistration(ctx context.Context, user *models.User, body []byte) (*models.WebAuthnCredential, error) {
	parsed, err := protocol.ParseCredentialCreationResponseBody(bytes.NewReader(body))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, appErrors.ErrBadRequest.Status, "invalid attestation response")
	}
	var session webauthn.SessionData
	if err := s.takeSession(ctx, attestationKeyPrefix+parsed.Response.CollectedClientData.Challenge, &session); err != nil {
		return nil, err
	}
	wu, err := s.loadUser(ctx, user)
	if err != nil {
		return nil, err
	}
	credential, err := s.rp.CreateCredential(wu, session, parsed)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, appErrors.ErrBadRequest.Status, "webauthn attestation failed")
	}
	stored := models.NewWebAuthnCredential(user.ID, credential, s.now().UTC())
	if err := s.creds.Create(ctx, stored); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store webauthn credential")
	}
	return stored, nil
}

// BeginLogin returns assertion options. A non-empty userIDs restricts the allowed credentials to
// those users, otherwise any discoverable credential is accepted.
func (s *WebAuthnService) BeginLogin(ctx context.Context, userIDs []string) (*protocol.CredentialAssertion, error) {
	var opts []webauthn.LoginOption
	if len(userIDs) > 0 {
		creds, err := s.creds.ListByUsers(ctx, userIDs)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load webauthn credentials")
		}
		allowed := make([]protocol.CredentialDescriptor, 0, len(creds))
		for i := range creds {
			allowed = append(allowed, creds[i].Credential().Descriptor())
		}
		opts = append(opts, webauthn.WithAllowedCredentials(allowed))
	}
	assertion, session, err := s.rp.BeginDiscoverableLogin(opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin webauthn login")
	}
	if err := s.store.Set(ctx, assertionKeyPrefix+session.Challenge, session, s.ttl); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store webauthn session")
	}
	return assertion, nil
}

// FinishLogin verifies an assertion and returns its owner. The stored sign counter is advanced.
func (s *WebAuthnService) FinishLogin(ctx context.Context, body []byte) (*models.User, *dto.WebAuthnAssertionResult, error) {
	parsed, err := protocol.ParseCredentialRequestResponseBody(bytes.NewReader(body))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, appErrors.ErrBadRequest.Status, "invalid assertion response")
	}
	var session webauthn.SessionData
	if err := s.takeSession(ctx, assertionKeyPrefix+parsed.Response.CollectedClientData.Challenge, &session); err != nil {
		return nil, nil, err
	}

	var owner *models.User
	handler := func(rawID, userHandle []byte) (webauthn.User, error) {
		user, err := s.users.FindByID(ctx, string(userHandle))
		if err != nil {
			return nil, err
		}
		wu, err := s.loadUser(ctx, user)
		if err != nil {
			return nil, err
		}
		owner = user
		return wu, nil
	}

	credential, err := s.rp.ValidateDiscoverableLogin(handler, session, parsed)
	if err != nil || owner == nil {
		if err == nil {
			err = errors.New("assertion owner not resolved")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "webauthn assertion failed")
	}
	if credential.Authenticator.CloneWarning {
		s.logger.Warn("webauthn sign counter went backwards", zap.String("user_id", owner.ID))
	}
	if err := s.creds.UpdateCounter(ctx, credential.ID, credential.Authenticator.SignCount, credential.Flags.BackupState); err != nil {
		s.logger.Warn("failed to update webauthn sign counter", zap.String("user_id", owner.ID), zap.Error(err))
	}
	return owner, &dto.WebAuthnAssertionResult{
		UserID:       owner.ID,
		CredentialID: encodeCredentialID(credential.ID),
	}, nil
}

// ListCredentials returns the authenticators of the user.
func (s *WebAuthnService) ListCredentials(ctx context.Context, userID string) ([]dto.WebAuthnCredentialResponse, error) {
	creds, err := s.creds.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load webauthn credentials")
	}
	out := make([]dto.WebAuthnCredentialResponse, 0, len(creds))
	for _, c := range creds {
		item := dto.WebAuthnCredentialResponse{
			ID:         encodeCredentialID(c.ID),
			Transports: c.Transports,
			CreatedOn:  c.CreatedOn,
		}
		if c.Name != nil {
			item.Name = *c.Name
		}
		out = append(out, item)
	}
	return out, nil
}

// DeleteCredential removes one authenticator. id is base64url encoded.
func (s *WebAuthnService) DeleteCredential(ctx context.Context, userID, id string) error {
	raw, err := base64.RawURLEncoding.DecodeString(id)
	if err != nil {
		return appErrors.Clone(appErrors.ErrBadRequest, "invalid credential id")
	}
	deleted, err := s.creds.Delete(ctx, userID, raw)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete webauthn credential")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "webauthn credential not found")
	}
	return nil
}

// DeleteAllCredentials removes every authenticator of the user.
func (s *WebAuthnService) DeleteAllCredentials(ctx context.Context, userID string) error {
	if err := s.creds.DeleteAllByUser(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete webauthn credentials")
	}
	return nil
}

func (s *WebAuthnService) loadUser(ctx context.Context, user *models.User) (*models.WebAuthnUser, error) {
	creds, err := s.creds.ListByUser(ctx, user.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load webauthn credentials")
	}
	return &models.WebAuthnUser{User: user, Credentials: creds}, nil
}

func (s *WebAuthnService) takeSession(ctx context.Context, key string, dest *webauthn.SessionData) error {
	found, err := s.store.Take(ctx, key, dest)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load webauthn session")
	}
	if !found {
		return appErrors.Clone(appErrors.ErrInvalidToken, "webauthn ceremony expired or unknown")
	}
	return nil
}

func encodeCredentialID(id []byte) string {
	return base64.RawURLEncoding.EncodeToString(id)
}
