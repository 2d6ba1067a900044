package database

import (
	"testing"

	"appfeed/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_IncludesFeedLike(t *testing.T) {
	found := false
	for _, model := range PersistentModels() {
		if _, ok := model.(*models.FeedLike); ok {
			found = true
			break
		}
	}
	require.True(t, found, "PersistentModels should include FeedLike")
}
