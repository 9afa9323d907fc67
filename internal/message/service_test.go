package message

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBlocks struct {
	blocked bool
	err     error
}

func (s stubBlocks) IsChatBlocked(ctx context.Context, ownerID, userID string) (bool, error) {
	return s.blocked, s.err
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	svc := NewService(nil, nil, stubBlocks{})

	_, err := svc.Send(context.Background(), Identity{ID: "u1", Name: "Ann"}, &SendRequest{
		OwnerID: "owner",
		Body:    "",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestSendAllowsAttachmentWithoutBody(t *testing.T) {
	// An attachment alone passes validation; the blocked sender still
	// stops the send before anything touches the store.
	svc := NewService(nil, nil, stubBlocks{blocked: true})

	_, err := svc.Send(context.Background(), Identity{ID: "u1", Name: "Ann"}, &SendRequest{
		OwnerID:    "owner",
		Attachment: &Attachment{URL: "/files/x.png", Name: "x.png", Type: "image/png"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestSendRejectsBlockedSenderRegardlessOfContent(t *testing.T) {
	svc := NewService(nil, nil, stubBlocks{blocked: true})

	for _, body := range []string{"hello", "anything at all"} {
		_, err := svc.Send(context.Background(), Identity{ID: "u1", Name: "Ann"}, &SendRequest{
			OwnerID: "owner",
			Body:    body,
		})
		assert.ErrorIs(t, err, ErrBlocked)
	}
}
