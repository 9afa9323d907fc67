package reaction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(user, value string, at time.Time) Reaction {
	return Reaction{
		UserID:    user,
		UserName:  "name-" + user,
		Type:      TypeEmoji,
		Value:     value,
		CreatedAt: at,
	}
}

func TestGroupAllFirstSeenOrder(t *testing.T) {
	base := time.Now()
	rows := []Reaction{
		row("u1", "👍", base),
		row("u2", "👍", base.Add(time.Second)),
		row("u1", "❤️", base.Add(2*time.Second)),
	}

	groups := GroupAll(rows, "u1")
	require.Len(t, groups, 2)

	assert.Equal(t, "👍", groups[0].Value)
	assert.Equal(t, 2, groups[0].Count)
	assert.Equal(t, []string{"name-u1", "name-u2"}, groups[0].Users)
	assert.True(t, groups[0].HasCurrentUser)

	assert.Equal(t, "❤️", groups[1].Value)
	assert.Equal(t, 1, groups[1].Count)
	assert.Equal(t, []string{"name-u1"}, groups[1].Users)
	assert.True(t, groups[1].HasCurrentUser)
}

func TestGroupAllViewerNotAmongReactors(t *testing.T) {
	groups := GroupAll([]Reaction{
		row("u1", "🎉", time.Now()),
		row("u2", "🎉", time.Now()),
	}, "u3")

	require.Len(t, groups, 1)
	assert.Equal(t, 2, groups[0].Count)
	assert.False(t, groups[0].HasCurrentUser)
}

func TestGroupAllEmpty(t *testing.T) {
	assert.Empty(t, GroupAll(nil, "u1"))
}

func TestGroupAllKeepsTypePerValue(t *testing.T) {
	groups := GroupAll([]Reaction{
		{UserID: "u1", UserName: "a", Type: TypeGif, Value: "https://gif/1"},
		{UserID: "u2", UserName: "b", Type: TypeEmoji, Value: "😀"},
	}, "u1")

	require.Len(t, groups, 2)
	assert.Equal(t, TypeGif, groups[0].Type)
	assert.Equal(t, TypeEmoji, groups[1].Type)
}

func TestVariantTables(t *testing.T) {
	assert.Equal(t, "message_reactions", VariantTeam.table())
	assert.Equal(t, "private_message_reactions", VariantPrivate.table())
	// Unknown variants fall back to the team table rather than reaching a
	// nonexistent one.
	assert.Equal(t, "message_reactions", Variant("").table())
}
