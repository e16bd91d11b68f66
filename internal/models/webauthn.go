package models

import (
	"strings"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// WebAuthnCredential is a registered FIDO2 authenticator.
type WebAuthnCredential struct {
	ID              []byte    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"userId"`
	PublicKey       []byte    `db:"public_key" json:"-"`
	AttestationType string    `db:"attestation_type" json:"attestationType"`
	AAGUID          []byte    `db:"aaguid" json:"aaGuid,omitempty"`
	SignCount       uint32    `db:"sign_count" json:"signCount"`
	Transports      string    `db:"transports" json:"transports"`
	UserPresent     bool      `db:"user_present" json:"userPresent"`
	UserVerified    bool      `db:"user_verified" json:"userVerified"`
	BackupEligible  bool      `db:"backup_eligible" json:"backupEligible"`
	BackupState     bool      `db:"backup_state" json:"backupState"`
	Name            *string   `db:"name" json:"name,omitempty"`
	CreatedOn       time.Time `db:"created_on" json:"createdOn"`
}

// NewWebAuthnCredential maps a verified library credential to its stored form.
func NewWebAuthnCredential(userID string, c *webauthn.Credential, now time.Time) *WebAuthnCredential {
	transports := make([]string, 0, len(c.Transport))
	for _, t := range c.Transport {
		transports = append(transports, string(t))
	}
	return &WebAuthnCredential{
		ID:              c.ID,
		UserID:          userID,
		PublicKey:       c.PublicKey,
		AttestationType: c.AttestationType,
		AAGUID:          c.Authenticator.AAGUID,
		SignCount:       c.Authenticator.SignCount,
		Transports:      strings.Join(transports, ","),
		UserPresent:     c.Flags.UserPresent,
		UserVerified:    c.Flags.UserVerified,
		BackupEligible:  c.Flags.BackupEligible,
		BackupState:     c.Flags.BackupState,
		CreatedOn:       now,
	}
}

// Credential converts the stored row back into the library representation.
func (c *WebAuthnCredential) Credential() webauthn.Credential {
	var transports []protocol.AuthenticatorTransport
	for _, t := range strings.Split(c.Transports, ",") {
		if t != "" {
			transports = append(transports, protocol.AuthenticatorTransport(t))
		}
	}
	return webauthn.Credential{
		ID:              c.ID,
		PublicKey:       c.PublicKey,
		AttestationType: c.AttestationType,
		Transport:       transports,
		Flags: webauthn.CredentialFlags{
			UserPresent:    c.UserPresent,
			UserVerified:   c.UserVerified,
			BackupEligible: c.BackupEligible,
			BackupState:    c.BackupState,
		},
		Authenticator: webauthn.Authenticator{
			AAGUID:    c.AAGUID,
			SignCount: c.SignCount,
		},
	}
}

// WebAuthnUser adapts a user and its credentials to webauthn.User.
type WebAuthnUser struct {
	User        *User
	Credentials []WebAuthnCredential
}

func (u *WebAuthnUser) WebAuthnID() []byte { return []byte(u.User.ID) }

func (u *WebAuthnUser) WebAuthnName() string { return u.User.DisplayUserName() }

func (u *WebAuthnUser) WebAuthnDisplayName() string { return u.User.DisplayName() }

func (u *WebAuthnUser) WebAuthnCredentials() []webauthn.Credential {
	creds := make([]webauthn.Credential, 0, len(u.Credentials))
	for i := range u.Credentials {
		creds = append(creds, u.Credentials[i].Credential())
	}
	return creds
}
