package notification

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Writer inserts notifications inside the caller's transaction, so a
// notification exists only if the change it describes was committed.
type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Enqueue(ctx context.Context, tx pgx.Tx, n Notification) error {
	if n.UserID == "" {
		return fmt.Errorf("notification: missing recipient")
	}
	data := n.Data
	if data == nil {
		data = map[string]any{}
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO notifications (user_id, type, title, message, data)
		VALUES ($1, $2, $3, $4, $5)
	`, n.UserID, n.Type, n.Title, n.Message, data)
	if err != nil {
		return fmt.Errorf("notification: enqueue %s: %w", n.Type, err)
	}
	return nil
}
