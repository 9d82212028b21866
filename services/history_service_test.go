package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/bingoserver/models"
	"github.com/wfunc/bingoserver/persistence"
)

func TestHistoryService_RecordAndQuery(t *testing.T) {
	svc := NewHistoryService(persistence.NewMemoryStore(0), time.Second)
	ctx := context.Background()
	now := time.Now()

	svc.RecordRound(models.RoundRecord{RoomID: "default", Reason: "bingo", StartedAt: now, EndedAt: now.Add(time.Minute),
		Winner: &models.WinnerInfo{ID: "a", Name: "Alice", Pattern: "Column 2"}})
	svc.Wait()
	svc.RecordRound(models.RoundRecord{RoomID: "lobby", Reason: "numbers exhausted", StartedAt: now, EndedAt: now.Add(2 * time.Minute)})
	svc.Wait()

	rounds, err := svc.RecentRounds(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, "lobby", rounds[0].RoomID)

	rounds, err = svc.RecentRounds(ctx, "default", 10)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, "Column 2", rounds[0].Winner.Pattern)

	round, err := svc.Round(ctx, rounds[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "default", round.RoomID)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"bingo": 1, "numbers exhausted": 1}, stats)
}

type failingStore struct {
	persistence.Database
}

func (failingStore) SaveRoundRecord(context.Context, *models.RoundRecord) error {
	return errors.New("database unavailable")
}

func TestHistoryService_SaveFailureIsSwallowed(t *testing.T) {
	svc := NewHistoryService(failingStore{}, time.Second)

	svc.RecordRound(models.RoundRecord{RoomID: "default", Reason: "bingo"})
	svc.Wait()
}
