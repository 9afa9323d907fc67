package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDMKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, DM("owner", "alice", "bob"), DM("owner", "bob", "alice"))
	assert.Equal(t, "dm:owner:alice:bob", DM("owner", "bob", "alice"))
}

func TestKeyFamiliesAreDisjoint(t *testing.T) {
	assert.True(t, IsDM(DM("o", "a", "b")))
	assert.False(t, IsDM(Team("o")))
	assert.False(t, IsDM(User("a")))
	assert.NotEqual(t, Team("x"), User("x"))
}
