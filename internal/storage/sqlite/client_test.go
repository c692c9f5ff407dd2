package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nix-ai/backend/internal/storage/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.InitSchema())
	return client
}

func TestInsertAndGetUserHistory(t *testing.T) {
	client := newTestClient(t)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	turns := []models.TurnRecord{
		{ID: "t-1", UserID: 7, Message: "привет", Response: "Привет!", Source: "rule", CreatedAt: base},
		{ID: "t-2", UserID: 7, Message: "что такое python", Response: "Язык.", Source: "qna",
			Confidence: 0.9, LatencyMS: 3, CreatedAt: base.Add(time.Minute)},
		{ID: "t-3", UserID: 9, Message: "пока", Response: "Пока!", Source: "rule",
			CreatedAt: base.Add(2 * time.Minute)},
	}
	for i := range turns {
		require.NoError(t, client.InsertTurn(&turns[i]))
	}

	records, err := client.GetUserHistory(7, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first.
	assert.Equal(t, "t-2", records[0].ID)
	assert.Equal(t, "t-1", records[1].ID)
	assert.Equal(t, "что такое python", records[0].Message)
	assert.Equal(t, "qna", records[0].Source)
	assert.InDelta(t, 0.9, records[0].Confidence, 1e-9)
	assert.Equal(t, 3, records[0].LatencyMS)
	assert.True(t, records[0].CreatedAt.Equal(base.Add(time.Minute)))
}

func TestGetUserHistoryRespectsLimit(t *testing.T) {
	client := newTestClient(t)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, client.InsertTurn(&models.TurnRecord{
			ID:        string(rune('a' + i)),
			UserID:    7,
			Message:   "msg",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	records, err := client.GetUserHistory(7, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "e", records[0].ID)
	assert.Equal(t, "d", records[1].ID)
}

func TestGetUserHistoryEmpty(t *testing.T) {
	client := newTestClient(t)

	records, err := client.GetUserHistory(404, 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestInitSchemaIdempotent(t *testing.T) {
	client := newTestClient(t)
	require.NoError(t, client.InitSchema())
}
