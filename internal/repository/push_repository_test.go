package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lob-api/internal/models"
)

func TestPushUpsertAndDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPushSubscriptionRepository(db)

	mock.ExpectExec(`INSERT INTO push_subscriptions .* ON CONFLICT \(endpoint\) DO UPDATE`).WillReturnResult(sqlmock.NewResult(1, 1))
	sub := &models.PushSubscription{UserID: "u1", Endpoint: "https://push.example/1", P256dh: "k", Auth: "a", CreatedOn: time.Now()}
	require.NoError(t, repo.Upsert(context.Background(), sub))
	assert.NotEmpty(t, sub.ID)

	mock.ExpectExec(`DELETE FROM push_subscriptions WHERE endpoint = \? AND user_id = \?`).
		WithArgs("https://push.example/1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.DeleteByEndpoint(context.Background(), "u1", "https://push.example/1"))

	mock.ExpectExec(`DELETE FROM push_subscriptions WHERE endpoint = \?$`).
		WithArgs("https://push.example/2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.DeleteByEndpoint(context.Background(), "", "https://push.example/2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
