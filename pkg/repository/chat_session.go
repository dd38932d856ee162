package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/soba-ai/soba/pkg/domain"
)

// PostgresChatSessionRepository stores sessions in PostgreSQL.
type PostgresChatSessionRepository struct {
	db *sql.DB
}

// NewPostgresChatSessionRepository creates a repository on the given pool.
func NewPostgresChatSessionRepository(db *sql.DB) *PostgresChatSessionRepository {
	return &PostgresChatSessionRepository{db: db}
}

// Save writes the session aggregate in one transaction. Every statement is an
// idempotent upsert, so saving after each turn re-writes prior rows safely.
// SYSTEM messages are never persisted.
func (r *PostgresChatSessionRepository) Save(ctx context.Context, session *domain.ChatSession) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &SaveError{Entity: "chat_session", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chat_sessions (id, thread_id, user_id, channel_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			updated_at = EXCLUDED.updated_at`,
		session.ID, nullString(session.ThreadID), session.UserID, session.ChannelID,
		session.CreatedAt, time.Now(),
	)
	if err != nil {
		return &SaveError{Entity: "chat_session", Err: err}
	}

	for _, msg := range session.Messages {
		if msg.Role == domain.RoleSystem {
			continue
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO messages (id, chat_session_id, role, content, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				role = EXCLUDED.role,
				content = EXCLUDED.content`,
			msg.ID, session.ID, string(msg.Role), msg.Content, msg.CreatedAt,
		)
		if err != nil {
			return &SaveError{Entity: "message", Err: err}
		}
	}

	for _, plan := range session.TaskPlans {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO task_plans (id, chat_session_id, message_id, created_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO NOTHING`,
			plan.ID, session.ID, plan.MessageID, plan.CreatedAt,
		)
		if err != nil {
			return &SaveError{Entity: "task_plan", Err: err}
		}

		for _, task := range plan.Tasks {
			logJSON, err := encodeTaskLog(task.Log)
			if err != nil {
				return &SaveError{Entity: "task", Err: err}
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO tasks (
					id, task_plan_id, description, agent_name,
					status, result, task_log_json, created_at, completed_at
				)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				ON CONFLICT (id) DO UPDATE SET
					status = EXCLUDED.status,
					result = EXCLUDED.result,
					task_log_json = EXCLUDED.task_log_json,
					completed_at = EXCLUDED.completed_at`,
				task.ID, plan.ID, task.Description, string(task.Agent),
				string(task.Status), nullString(task.Result), logJSON,
				task.CreatedAt, task.CompletedAt,
			)
			if err != nil {
				return &SaveError{Entity: "task", Err: err}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return &SaveError{Entity: "chat_session", Err: err}
	}
	return nil
}

// FindByID rebuilds the full session aggregate, ordering messages, plans, and
// tasks by creation time. Returns (nil, nil) when the session does not exist.
func (r *PostgresChatSessionRepository) FindByID(ctx context.Context, id string) (*domain.ChatSession, error) {
	var (
		threadID             sql.NullString
		userID, channelID    string
		createdAt, updatedAt time.Time
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT thread_id, user_id, channel_id, created_at, updated_at
		FROM chat_sessions
		WHERE id = $1`, id,
	).Scan(&threadID, &userID, &channelID, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &FetchError{Entity: "chat_session", Err: err}
	}

	messages, err := r.loadMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	plans, err := r.loadTaskPlans(ctx, id)
	if err != nil {
		return nil, err
	}

	return domain.ReconstructChatSession(
		id, threadID.String, userID, channelID,
		messages, plans, createdAt, updatedAt,
	), nil
}

func (r *PostgresChatSessionRepository) loadMessages(ctx context.Context, sessionID string) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, role, content, created_at
		FROM messages
		WHERE chat_session_id = $1
		ORDER BY created_at ASC`, sessionID,
	)
	if err != nil {
		return nil, &FetchError{Entity: "message", Err: err}
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		var (
			msgID     uuid.UUID
			role      string
			content   string
			createdAt time.Time
		)
		if err := rows.Scan(&msgID, &role, &content, &createdAt); err != nil {
			return nil, &FetchError{Entity: "message", Err: err}
		}
		msg, err := domain.ReconstructMessage(msgID, domain.Role(role), content, createdAt)
		if err != nil {
			return nil, &FetchError{Entity: "message", Err: err}
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, &FetchError{Entity: "message", Err: err}
	}
	return messages, nil
}

func (r *PostgresChatSessionRepository) loadTaskPlans(ctx context.Context, sessionID string) ([]*domain.TaskPlan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, message_id, created_at
		FROM task_plans
		WHERE chat_session_id = $1
		ORDER BY created_at ASC`, sessionID,
	)
	if err != nil {
		return nil, &FetchError{Entity: "task_plan", Err: err}
	}
	defer rows.Close()

	type planRow struct {
		id        uuid.UUID
		messageID uuid.UUID
		createdAt time.Time
	}
	var planRows []planRow
	for rows.Next() {
		var p planRow
		if err := rows.Scan(&p.id, &p.messageID, &p.createdAt); err != nil {
			return nil, &FetchError{Entity: "task_plan", Err: err}
		}
		planRows = append(planRows, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &FetchError{Entity: "task_plan", Err: err}
	}

	var plans []*domain.TaskPlan
	for _, p := range planRows {
		tasks, err := r.loadTasks(ctx, p.id)
		if err != nil {
			return nil, err
		}
		plan, err := domain.ReconstructTaskPlan(p.id, p.messageID, tasks, p.createdAt)
		if err != nil {
			return nil, &FetchError{Entity: "task_plan", Err: err}
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func (r *PostgresChatSessionRepository) loadTasks(ctx context.Context, planID uuid.UUID) ([]*domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, description, agent_name, status, result, task_log_json, created_at, completed_at
		FROM tasks
		WHERE task_plan_id = $1
		ORDER BY created_at ASC`, planID,
	)
	if err != nil {
		return nil, &FetchError{Entity: "task", Err: err}
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		var (
			taskID      uuid.UUID
			description string
			agentName   string
			status      string
			result      sql.NullString
			logRaw      []byte
			createdAt   time.Time
			completedAt sql.NullTime
		)
		if err := rows.Scan(&taskID, &description, &agentName, &status, &result, &logRaw, &createdAt, &completedAt); err != nil {
			return nil, &FetchError{Entity: "task", Err: err}
		}

		agent, err := domain.ParseAgentName(agentName)
		if err != nil {
			return nil, &FetchError{Entity: "task", Err: err}
		}
		log, err := decodeTaskLog(agent, logRaw)
		if err != nil {
			return nil, &FetchError{Entity: "task", Err: err}
		}

		var completed *time.Time
		if completedAt.Valid {
			completed = &completedAt.Time
		}
		task, err := domain.ReconstructTask(
			taskID, description, agent, domain.TaskStatus(status),
			result.String, log, createdAt, completed,
		)
		if err != nil {
			return nil, &FetchError{Entity: "task", Err: err}
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, &FetchError{Entity: "task", Err: err}
	}
	return tasks, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
