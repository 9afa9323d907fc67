package unread

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClearResetsOnlyThatSender(t *testing.T) {
	c := NewCounter()

	for i := 0; i < 5; i++ {
		c.Incoming("sender-a")
	}
	c.Incoming("sender-b")
	c.Incoming("sender-b")

	assert.Equal(t, map[string]int{"sender-a": 5, "sender-b": 2}, c.Counts())
	assert.Equal(t, 7, c.Total())

	// Opening the thread with A marks it read; B must be untouched.
	c.ClearSender("sender-a")
	assert.Equal(t, map[string]int{"sender-b": 2}, c.Counts())
	assert.Equal(t, 2, c.Total())

	c.ClearSender("sender-a") // already clear, no-op
	assert.Equal(t, 2, c.Total())
}

func TestSeedReplacesAndDropsZeroes(t *testing.T) {
	c := NewCounter()
	c.Incoming("old-sender")

	c.Seed(map[string]int{"s1": 3, "s2": 0})
	assert.Equal(t, map[string]int{"s1": 3}, c.Counts())

	assert.Equal(t, 4, c.Incoming("s1"))
	assert.Equal(t, 1, c.Incoming("s3"))
}

func TestCountsIsACopy(t *testing.T) {
	c := NewCounter()
	c.Incoming("s1")

	got := c.Counts()
	got["s1"] = 99
	assert.Equal(t, 1, c.Counts()["s1"])
}
