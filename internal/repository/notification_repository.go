package repository

import (
    "context"
    "database/sql"

    "github.com/google/uuid"

    "github.com/ticketrush/booking/internal/model"
)

// NotificationRepo provides data access to the notifications table.
// Rows are written by the fan-out service; the only permitted update
// after creation is flipping the is_read flag.
type NotificationRepo struct {
    db *sql.DB
}

// NewNotificationRepo returns a new NotificationRepo bound to the
// provided database.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Insert persists a single notification row.
func (r *NotificationRepo) Insert(ctx context.Context, n model.Notification) error {
    _, err := r.db.ExecContext(ctx,
        `INSERT INTO notifications (id, user_id, message, type, is_read, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
        n.ID.String(), n.UserID.String(), n.Message, n.Type, n.Read,
        n.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
    )
    return err
}

// ListByUser returns the newest notifications of one user, capped at
// limit.  This is the polling fallback for clients that missed the
// live push.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
    if limit <= 0 {
        limit = 50
    }
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, user_id, message, type, is_read, created_at
         FROM notifications WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
        userID.String(), limit,
    )
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var notifications []model.Notification
    for rows.Next() {
        var (
            n        model.Notification
            id, user string
        )
        if err := rows.Scan(&id, &user, &n.Message, &n.Type, &n.Read, &n.CreatedAt); err != nil {
            return nil, err
        }
        if n.ID, err = uuid.Parse(id); err != nil {
            return nil, err
        }
        if n.UserID, err = uuid.Parse(user); err != nil {
            return nil, err
        }
        notifications = append(notifications, n)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return notifications, nil
}

// MarkRead sets the is_read flag of one notification.  It returns
// ErrNotFound when the row does not exist and ErrForbidden when it
// belongs to a different user, so handlers can answer 404 vs 403.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE notifications SET is_read = TRUE WHERE id = ? AND user_id = ?`,
        id.String(), userID.String(),
    )
    if err != nil {
        return err
    }
    affected, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if affected > 0 {
        return nil
    }
    // Zero affected rows means the row is missing, owned by someone
    // else, or already read (MySQL reports changed rows, not matched
    // rows).  Tell the cases apart by owner.
    var owner string
    err = r.db.QueryRowContext(ctx, `SELECT user_id FROM notifications WHERE id = ? LIMIT 1`, id.String()).Scan(&owner)
    if err == sql.ErrNoRows {
        return ErrNotFound
    }
    if err != nil {
        return err
    }
    if owner != userID.String() {
        return ErrForbidden
    }
    return nil // already read
}
