package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/fyrsmithlabs/debated/internal/debate"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS debates (
	id TEXT PRIMARY KEY,
	standpoint_0 TEXT NOT NULL,
	standpoint_1 TEXT NOT NULL,
	agent_configs TEXT NOT NULL,
	time_limit_minutes INTEGER NOT NULL,
	response_delay_seconds REAL NOT NULL,
	step_by_step INTEGER NOT NULL DEFAULT 0,
	max_turns INTEGER NOT NULL DEFAULT 0,
	auto_pause_every_n INTEGER NOT NULL DEFAULT 0,
	temperature REAL NOT NULL,
	status TEXT NOT NULL,
	end_reason TEXT NOT NULL DEFAULT '',
	turn_count INTEGER NOT NULL DEFAULT 0,
	created_at_ns INTEGER NOT NULL,
	started_at_ns INTEGER,
	ended_at_ns INTEGER
);

CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	debate_id TEXT NOT NULL REFERENCES debates(id) ON DELETE CASCADE,
	agent_index INTEGER NOT NULL,
	content TEXT NOT NULL,
	timestamp_ns INTEGER NOT NULL,
	edited INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_messages_debate_ts ON messages(debate_id, timestamp_ns);
`

// SQLiteStore is the durable Store used by the daemon.
type SQLiteStore struct {
	db *sql.DB

	mu     sync.Mutex
	lastTS int64
}

// NewSQLiteStore opens (and if necessary initializes) a SQLite database at
// the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite allows a single writer; serialize through one connection.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// nextTimestampNS returns a strictly increasing unix-nano timestamp so
// that rewind's "strictly newer" comparison never ties.
func (s *SQLiteStore) nextTimestampNS() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC().UnixNano()
	if now <= s.lastTS {
		now = s.lastTS + 1
	}
	s.lastTS = now
	return now
}

func (s *SQLiteStore) CreateDebate(ctx context.Context, params debate.CreateParams) (*debate.Debate, error) {
	configs, err := json.Marshal(params.AgentConfigs)
	if err != nil {
		return nil, fmt.Errorf("marshal agent configs: %w", err)
	}

	d := &debate.Debate{
		ID:                   uuid.NewString(),
		AgentConfigs:         params.AgentConfigs,
		TimeLimitMinutes:     params.TimeLimitMinutes,
		ResponseDelaySeconds: *params.ResponseDelaySeconds,
		StepByStepMode:       params.StepByStepMode,
		MaxTurns:             params.MaxTurns,
		AutoPauseEveryNTurns: params.AutoPauseEveryNTurns,
		Temperature:          *params.Temperature,
		Status:               debate.StatusPending,
		CreatedAt:            time.Now().UTC(),
	}
	copy(d.Standpoints[:], params.Standpoints)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO debates (
			id, standpoint_0, standpoint_1, agent_configs,
			time_limit_minutes, response_delay_seconds, step_by_step,
			max_turns, auto_pause_every_n, temperature, status,
			turn_count, created_at_ns
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		d.ID, d.Standpoints[0], d.Standpoints[1], string(configs),
		d.TimeLimitMinutes, d.ResponseDelaySeconds, boolToInt(d.StepByStepMode),
		d.MaxTurns, d.AutoPauseEveryNTurns, d.Temperature, string(d.Status),
		d.TurnCount, d.CreatedAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert debate: %w", err)
	}
	return d, nil
}

const debateColumns = `
	id, standpoint_0, standpoint_1, agent_configs,
	time_limit_minutes, response_delay_seconds, step_by_step,
	max_turns, auto_pause_every_n, temperature, status, end_reason,
	turn_count, created_at_ns, started_at_ns, ended_at_ns`

func scanDebate(row interface{ Scan(...any) error }) (*debate.Debate, error) {
	var (
		d         debate.Debate
		configs   string
		step      int
		status    string
		endReason string
		createdNS int64
		startedNS sql.NullInt64
		endedNS   sql.NullInt64
	)
	err := row.Scan(
		&d.ID, &d.Standpoints[0], &d.Standpoints[1], &configs,
		&d.TimeLimitMinutes, &d.ResponseDelaySeconds, &step,
		&d.MaxTurns, &d.AutoPauseEveryNTurns, &d.Temperature, &status, &endReason,
		&d.TurnCount, &createdNS, &startedNS, &endedNS,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(configs), &d.AgentConfigs); err != nil {
		return nil, fmt.Errorf("unmarshal agent configs: %w", err)
	}
	d.StepByStepMode = step != 0
	d.Status = debate.Status(status)
	d.EndReason = debate.EndReason(endReason)
	d.CreatedAt = time.Unix(0, createdNS).UTC()
	if startedNS.Valid {
		t := time.Unix(0, startedNS.Int64).UTC()
		d.StartedAt = &t
	}
	if endedNS.Valid {
		t := time.Unix(0, endedNS.Int64).UTC()
		d.EndedAt = &t
	}
	return &d, nil
}

func (s *SQLiteStore) FindDebate(ctx context.Context, id string) (*debate.Debate, error) {
	row := s.db.QueryRowContext(ctx, `SELECT`+debateColumns+` FROM debates WHERE id = ?`, id)
	d, err := scanDebate(row)
	if err == sql.ErrNoRows {
		return nil, ErrDebateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find debate: %w", err)
	}
	return d, nil
}

func (s *SQLiteStore) ListDebates(ctx context.Context) ([]*debate.Debate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT`+debateColumns+` FROM debates ORDER BY created_at_ns DESC`)
	if err != nil {
		return nil, fmt.Errorf("list debates: %w", err)
	}
	defer rows.Close()

	var out []*debate.Debate
	for rows.Next() {
		d, err := scanDebate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan debate: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status debate.Status) error {
	var res sql.Result
	var err error
	if status == debate.StatusRunning {
		res, err = s.db.ExecContext(ctx, `
			UPDATE debates SET status = ?,
				started_at_ns = COALESCE(started_at_ns, ?)
			WHERE id = ?`,
			string(status), time.Now().UTC().UnixNano(), id)
	} else {
		res, err = s.db.ExecContext(ctx, `UPDATE debates SET status = ? WHERE id = ?`, string(status), id)
	}
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return requireRow(res, ErrDebateNotFound)
}

func (s *SQLiteStore) UpdateTurnCount(ctx context.Context, id string, count int) error {
	res, err := s.db.ExecContext(ctx, `UPDATE debates SET turn_count = ? WHERE id = ?`, count, id)
	if err != nil {
		return fmt.Errorf("update turn count: %w", err)
	}
	return requireRow(res, ErrDebateNotFound)
}

func (s *SQLiteStore) EndDebate(ctx context.Context, id string, reason debate.EndReason) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE debates SET status = ?, end_reason = ?, ended_at_ns = ?
		WHERE id = ?`,
		string(debate.StatusCompleted), string(reason), time.Now().UTC().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("end debate: %w", err)
	}
	return requireRow(res, ErrDebateNotFound)
}

func (s *SQLiteStore) DeleteDebate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM debates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete debate: %w", err)
	}
	if err := requireRow(res, ErrDebateNotFound); err != nil {
		return err
	}
	// messages go via ON DELETE CASCADE
	return nil
}

func (s *SQLiteStore) ListMessages(ctx context.Context, debateID string) ([]debate.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, debate_id, agent_index, content, timestamp_ns, edited
		FROM messages WHERE debate_id = ? ORDER BY timestamp_ns ASC`, debateID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []debate.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func scanMessage(row interface{ Scan(...any) error }) (*debate.Message, error) {
	var (
		m      debate.Message
		tsNS   int64
		edited int
	)
	if err := row.Scan(&m.ID, &m.DebateID, &m.AgentIndex, &m.Content, &tsNS, &edited); err != nil {
		return nil, err
	}
	m.Timestamp = time.Unix(0, tsNS).UTC()
	m.Edited = edited != 0
	return &m, nil
}

func (s *SQLiteStore) AppendMessage(ctx context.Context, debateID string, agentIndex int, content string) (*debate.Message, error) {
	msg := debate.Message{
		ID:         uuid.NewString(),
		DebateID:   debateID,
		AgentIndex: agentIndex,
		Content:    content,
		Timestamp:  time.Unix(0, s.nextTimestampNS()).UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, debate_id, agent_index, content, timestamp_ns, edited)
		VALUES (?,?,?,?,?,0)`,
		msg.ID, msg.DebateID, msg.AgentIndex, msg.Content, msg.Timestamp.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &msg, nil
}

func (s *SQLiteStore) GetMessage(ctx context.Context, id string) (*debate.Message, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, debate_id, agent_index, content, timestamp_ns, edited
		FROM messages WHERE id = ?`, id)
	m, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

func (s *SQLiteStore) ReplaceMessageContent(ctx context.Context, id string, content string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE messages SET content = ?, edited = 1 WHERE id = ?`, content, id)
	if err != nil {
		return fmt.Errorf("replace message content: %w", err)
	}
	return requireRow(res, ErrMessageNotFound)
}

func (s *SQLiteStore) DeleteMessagesAfter(ctx context.Context, debateID, messageID string) (int, error) {
	ref, err := s.GetMessage(ctx, messageID)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM messages WHERE debate_id = ? AND timestamp_ns > ?`,
		debateID, ref.Timestamp.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("delete messages after: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ Store = (*SQLiteStore)(nil)
