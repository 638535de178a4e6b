package database

import (
	"context"
	"testing"

	"github.com/jomarcello/Waviate/internal/models"
	pkgmodels "github.com/jomarcello/Waviate/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyKeepsRowsAndKeys(t *testing.T) {
	src := newTestStore(t)
	dst := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, src.Append(ctx, "111",
		pkgmodels.Turn{Role: pkgmodels.RoleUser, Content: "Hoi"},
		pkgmodels.Turn{Role: pkgmodels.RoleAssistant, Content: "Hallo!"},
	))
	require.NoError(t, src.Append(ctx, "222", pkgmodels.Turn{Role: pkgmodels.RoleUser, Content: "Prijs?"}))
	require.NoError(t, src.MarkNeedsHuman(ctx, "222"))

	stats, err := Copy(ctx, src.db, dst.db)

	require.NoError(t, err)
	assert.Equal(t, CopyStats{Leads: 2, Conversations: 2, Messages: 3}, stats)

	var conversations, messages int64
	require.NoError(t, dst.db.Model(&models.Conversation{}).Count(&conversations).Error)
	require.NoError(t, dst.db.Model(&models.Message{}).Count(&messages).Error)
	assert.Equal(t, int64(2), conversations)
	assert.Equal(t, int64(3), messages)

	turns, err := dst.Load(ctx, "111", 10)
	require.NoError(t, err)
	assert.Equal(t, []pkgmodels.Turn{
		{Role: pkgmodels.RoleUser, Content: "Hoi"},
		{Role: pkgmodels.RoleAssistant, Content: "Hallo!"},
	}, turns)

	leads, err := dst.ListLeads(ctx)
	require.NoError(t, err)
	statuses := map[string]string{}
	for _, l := range leads {
		statuses[l.Phone] = l.ConversationStatus
	}
	assert.Equal(t, models.ConversationNeedsHumanAttention, statuses["222"])
}

func TestCopyEmptySource(t *testing.T) {
	src := newTestStore(t)
	dst := newTestStore(t)

	stats, err := Copy(context.Background(), src.db, dst.db)

	require.NoError(t, err)
	assert.Equal(t, CopyStats{}, stats)
}
