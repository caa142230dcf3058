package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmeshcher/storeadmin/internal/model"
)

// EnqueuePush сохраняет недоставленное push-сообщение для повторной отправки.
func (r *PostgresRepository) EnqueuePush(ctx context.Context, userID string, msg model.PushMessage, lastErr string) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal push message: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO push_outbox (event_id, user_id, payload, last_error) VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), userID, payload, lastErr,
	)
	if err != nil {
		return fmt.Errorf("insert push outbox: %w", err)
	}
	return nil
}

// FetchPendingPushes возвращает недоставленные сообщения, у которых осталось меньше maxAttempts попыток.
func (r *PostgresRepository) FetchPendingPushes(ctx context.Context, maxAttempts, limit int) ([]model.PendingPush, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id::text, payload, attempts
		 FROM push_outbox
		 WHERE sent_at IS NULL AND attempts < $1
		 ORDER BY id
		 LIMIT $2`,
		maxAttempts, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select pending pushes: %w", err)
	}
	defer rows.Close()

	var res []model.PendingPush
	for rows.Next() {
		var (
			p       model.PendingPush
			payload []byte
		)
		if err := rows.Scan(&p.ID, &p.UserID, &payload, &p.Attempts); err != nil {
			return nil, fmt.Errorf("scan pending push: %w", err)
		}
		if err := json.Unmarshal(payload, &p.Message); err != nil {
			return nil, fmt.Errorf("decode pending push %d: %w", p.ID, err)
		}
		res = append(res, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// MarkPushSent отмечает сообщение как доставленное.
func (r *PostgresRepository) MarkPushSent(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE push_outbox SET sent_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark push sent: %w", err)
	}
	return nil
}

// MarkPushFailed увеличивает счётчик попыток и сохраняет последнюю ошибку доставки.
func (r *PostgresRepository) MarkPushFailed(ctx context.Context, id int64, lastErr string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE push_outbox SET attempts = attempts + 1, last_error = $2 WHERE id = $1`,
		id, lastErr,
	)
	if err != nil {
		return fmt.Errorf("mark push failed: %w", err)
	}
	return nil
}
