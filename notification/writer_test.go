package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repfy/db/dbtest"
)

func TestWriterEnqueueUsesCallerTx(t *testing.T) {
	tx := &dbtest.Tx{}
	w := NewWriter()

	err := w.Enqueue(context.Background(), tx, Notification{
		UserID:  "user-1",
		Type:    TypeQuoteAccepted,
		Title:   "Quote accepted",
		Message: "Your quote was accepted",
	})
	require.NoError(t, err)

	require.Len(t, tx.Execs, 1)
	args := tx.Execs[0].Args
	assert.Equal(t, "user-1", args[0])
	assert.Equal(t, TypeQuoteAccepted, args[1])
	assert.Equal(t, map[string]any{}, args[4])
}

func TestWriterEnqueueRejectsMissingRecipient(t *testing.T) {
	tx := &dbtest.Tx{}
	err := NewWriter().Enqueue(context.Background(), tx, Notification{Type: TypeQuoteReceived})
	require.Error(t, err)
	assert.Empty(t, tx.Execs)
}

func TestWriterEnqueueWrapsExecError(t *testing.T) {
	boom := errors.New("boom")
	tx := &dbtest.Tx{ExecErr: boom}
	err := NewWriter().Enqueue(context.Background(), tx, Notification{UserID: "u", Type: TypeReviewReceived})
	assert.ErrorIs(t, err, boom)
}
