package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"appfeed/internal/featureflags"
	"appfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrich_BatchedLookupPreservesFallbacks(t *testing.T) {
	t.Parallel()

	var calls int32
	users := failingUserRepo()
	users.authorsByIDsFn = func(_ context.Context, ids []string) (map[string]models.Author, error) {
		atomic.AddInt32(&calls, 1)
		assert.ElementsMatch(t, []string{"u1", "u1", "ghost"}, ids)
		return map[string]models.Author{"u1": {Username: "neo", ProfileImage: "neo.png"}}, nil
	}
	e := NewEnricher(users, featureflags.NewManager(""))

	feeds := []*models.Feed{
		{ID: "f1", UserID: "u1"},
		{ID: "f2", UserID: ""},
		{ID: "f3", UserID: "u1"},
		{ID: "f4", UserID: "ghost"},
	}
	require.NoError(t, enrich(context.Background(), e, "app1", feeds))

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "neo", feeds[0].Username)
	assert.Equal(t, "neo.png", feeds[0].ProfileImage)
	assert.Equal(t, models.AppAuthorName, feeds[1].Username)
	assert.Equal(t, models.DefaultProfileImage, feeds[1].ProfileImage)
	assert.Equal(t, "neo", feeds[2].Username)
	assert.Empty(t, feeds[3].Username)
	assert.Empty(t, feeds[3].ProfileImage)
}

func TestEnrich_AppAuthoredNeedsNoLookup(t *testing.T) {
	t.Parallel()

	e := NewEnricher(failingUserRepo(), nil)
	comments := []*models.Comment{{ID: "c1"}, {ID: "c2"}}
	require.NoError(t, enrich(context.Background(), e, "app1", comments))
	for _, c := range comments {
		assert.Equal(t, models.AppAuthorName, c.Username)
	}

	require.NoError(t, enrich(context.Background(), e, "app1", []*models.Reply{}))
}

func TestEnrich_PerRecordFlag(t *testing.T) {
	t.Parallel()

	var perRecord int32
	users := failingUserRepo()
	users.authorByIDFn = func(_ context.Context, id string) (models.Author, bool, error) {
		atomic.AddInt32(&perRecord, 1)
		if id == "u1" {
			return models.Author{Username: "neo"}, true, nil
		}
		return models.Author{}, false, nil
	}
	e := NewEnricher(users, featureflags.NewManager(featureflags.PerRecordEnrichment+"=on"))

	replies := []*models.Reply{{UserID: "u1"}, {UserID: ""}, {UserID: "ghost"}}
	require.NoError(t, enrich(context.Background(), e, "", replies))

	assert.Equal(t, int32(2), atomic.LoadInt32(&perRecord))
	assert.Equal(t, "neo", replies[0].Username)
	assert.Equal(t, models.AppAuthorName, replies[1].Username)
	assert.Empty(t, replies[2].Username)
}

func TestEnrich_LookupErrorPropagates(t *testing.T) {
	t.Parallel()

	lookupErr := errors.New("directory down")
	users := failingUserRepo()
	users.authorsByIDsFn = func(context.Context, []string) (map[string]models.Author, error) {
		return nil, lookupErr
	}
	e := NewEnricher(users, nil)
	err := enrich(context.Background(), e, "app1", []*models.Feed{{UserID: "u1"}})
	assert.ErrorIs(t, err, lookupErr)
}
