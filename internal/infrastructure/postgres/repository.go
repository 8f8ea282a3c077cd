package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campo-social/notification/internal/domain"
)

const notificationColumns = `id, from_user_id, from_user_name, to_user_id, title, message,
	type, priority, platform, read, clicked, status, sent, delivery_message_id,
	data, created_at, updated_at, expires_at`

// Repository is the PostgreSQL implementation of domain.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new postgres Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new notification. created_at/updated_at come from the
// database clock, never from the client.
func (r *Repository) Create(ctx context.Context, input domain.CreateNotificationInput) (*domain.Notification, error) {
	dataJSON, _ := json.Marshal(input.Data)

	row := r.pool.QueryRow(ctx, `
		INSERT INTO notifications
			(from_user_id, from_user_name, to_user_id, title, message, type, priority, platform, status, data, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+notificationColumns,
		input.FromUserID, input.FromUserName, input.ToUserID, input.Title, input.Message,
		string(input.Type), string(input.Priority), input.Platform, string(domain.StatusPending),
		dataJSON, input.ExpiresAt,
	)

	n, err := scanNotification(row)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	return n, nil
}

// BatchCreate inserts all inputs as one multi-VALUES statement. A single
// statement is atomic, so either every row is written or none is.
func (r *Repository) BatchCreate(ctx context.Context, inputs []domain.CreateNotificationInput) ([]*domain.Notification, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	const paramsPerRow = 11
	args := make([]any, 0, len(inputs)*paramsPerRow)
	values := make([]string, 0, len(inputs))

	for i, input := range inputs {
		base := i * paramsPerRow
		dataJSON, _ := json.Marshal(input.Data)

		values = append(values, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6,
			base+7, base+8, base+9, base+10, base+11,
		))
		args = append(args,
			input.FromUserID, input.FromUserName, input.ToUserID, input.Title, input.Message,
			string(input.Type), string(input.Priority), input.Platform, string(domain.StatusPending),
			dataJSON, input.ExpiresAt,
		)
	}

	query := `INSERT INTO notifications
		(from_user_id, from_user_name, to_user_id, title, message, type, priority, platform, status, data, expires_at)
		VALUES ` + strings.Join(values, ",") + `
		RETURNING ` + notificationColumns

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("batch insert notifications: %w", err)
	}
	defer rows.Close()

	var inserted []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		inserted = append(inserted, n)
	}
	return inserted, rows.Err()
}

// GetByID fetches a single notification.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)

	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.E(domain.CodeNotFound, "notification %s not found", id)
		}
		return nil, err
	}
	return n, nil
}

// ApplyDelivery writes the delivery outcome and refreshes updated_at.
// Concurrent applies are last-write-wins; the Delivery Engine is the only
// writer after creation in the common path.
func (r *Repository) ApplyDelivery(ctx context.Context, id uuid.UUID, upd domain.DeliveryUpdate) error {
	var msgID *string
	if upd.DeliveryMessageID != "" {
		msgID = &upd.DeliveryMessageID
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET status = $1, sent = $2, delivery_message_id = $3, updated_at = now()
		WHERE id = $4
	`, string(upd.Status), upd.Sent, msgID, id)
	if err != nil {
		return fmt.Errorf("apply delivery outcome: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.E(domain.CodeNotFound, "notification %s not found", id)
	}
	return nil
}

// CountCreatedBySince counts a sender's creations after the given instant.
func (r *Repository) CountCreatedBySince(ctx context.Context, fromUserID string, since time.Time) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE from_user_id = $1 AND created_at > $2`,
		fromUserID, since,
	).Scan(&count)
	return count, err
}

// ListExpiredIDs returns up to limit ids of records past their expiry.
func (r *Repository) ListExpiredIDs(ctx context.Context, before time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM notifications
		WHERE expires_at < $1
		ORDER BY expires_at
		LIMIT $2
	`, before, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired notifications: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteMany removes the given records in one statement.
func (r *Repository) DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}

// List fetches paginated notifications for a recipient.
func (r *Repository) List(ctx context.Context, f domain.NotificationFilter) ([]*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE to_user_id = $1`
	args := []any{f.ToUserID}
	paramIdx := 2

	if f.Read != nil {
		query += fmt.Sprintf(" AND read = $%d", paramIdx)
		args = append(args, *f.Read)
		paramIdx++
	}
	if f.Type != "" {
		query += fmt.Sprintf(" AND type = $%d", paramIdx)
		args = append(args, string(f.Type))
		paramIdx++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", paramIdx, paramIdx+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var results []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, n)
	}
	return results, rows.Err()
}

// MarkRead marks a single notification as read.
func (r *Repository) MarkRead(ctx context.Context, id uuid.UUID, toUserID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET read = TRUE, updated_at = now()
		WHERE id = $1 AND to_user_id = $2 AND read = FALSE
	`, id, toUserID)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.E(domain.CodeNotFound, "notification not found or already read")
	}
	return nil
}

// MarkAllRead marks every unread notification for a recipient as read.
func (r *Repository) MarkAllRead(ctx context.Context, toUserID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET read = TRUE, updated_at = now()
		WHERE to_user_id = $1 AND read = FALSE
	`, toUserID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// MarkClicked records a click acknowledgment. A click implies read.
func (r *Repository) MarkClicked(ctx context.Context, id uuid.UUID, toUserID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET clicked = TRUE, read = TRUE, updated_at = now()
		WHERE id = $1 AND to_user_id = $2
	`, id, toUserID)
	if err != nil {
		return fmt.Errorf("mark clicked: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.E(domain.CodeNotFound, "notification not found")
	}
	return nil
}

// CountUnread returns the unread badge count for a recipient.
func (r *Repository) CountUnread(ctx context.Context, toUserID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE to_user_id = $1 AND read = FALSE`,
		toUserID,
	).Scan(&count)
	return count, err
}

// Stats computes the recipient's counters in one query. Week starts on
// Sunday; boundaries are taken from now's location.
func (r *Repository) Stats(ctx context.Context, toUserID string, now time.Time) (*domain.Stats, error) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfWeek := startOfDay.AddDate(0, 0, -int(now.Weekday()))
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var s domain.Stats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE read = FALSE),
			COUNT(*) FILTER (WHERE created_at >= $2),
			COUNT(*) FILTER (WHERE created_at >= $3),
			COUNT(*) FILTER (WHERE created_at >= $4)
		FROM notifications WHERE to_user_id = $1
	`, toUserID, startOfDay, startOfWeek, startOfMonth).
		Scan(&s.Total, &s.Unread, &s.Today, &s.ThisWeek, &s.ThisMonth)
	if err != nil {
		return nil, fmt.Errorf("notification stats: %w", err)
	}
	return &s, nil
}

// scanNotification scans a row into a Notification.
type scannable interface {
	Scan(dest ...any) error
}

func scanNotification(row scannable) (*domain.Notification, error) {
	var n domain.Notification
	var dataJSON []byte
	var msgID *string

	err := row.Scan(
		&n.ID, &n.FromUserID, &n.FromUserName, &n.ToUserID, &n.Title, &n.Message,
		&n.Type, &n.Priority, &n.Platform, &n.Read, &n.Clicked, &n.Status, &n.Sent,
		&msgID, &dataJSON, &n.CreatedAt, &n.UpdatedAt, &n.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	if msgID != nil {
		n.DeliveryMessageID = *msgID
	}
	if len(dataJSON) > 0 {
		_ = json.Unmarshal(dataJSON, &n.Data)
	}
	return &n, nil
}
