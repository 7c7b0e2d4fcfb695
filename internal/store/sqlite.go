package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3" // SQLite driver
)

var (
	// ErrNotFound is returned when no row matches a lookup.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint is violated,
	// e.g. registering an already-known WhatsApp number.
	ErrConflict = errors.New("conflict")
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err = db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        whatsapp_number TEXT UNIQUE NOT NULL,
        name TEXT NOT NULL,
        preferred_language TEXT NOT NULL CHECK (preferred_language IN ('en', 'es', 'pt')),
        tech_area TEXT NOT NULL CHECK (tech_area IN ('javascript', 'python', 'ruby', 'go', 'dsa')),
        is_active BOOLEAN NOT NULL DEFAULT TRUE,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        last_question_sent DATETIME,
        last_question_id INTEGER REFERENCES questions (id)
    );

    CREATE TABLE IF NOT EXISTS questions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        tech_area TEXT NOT NULL CHECK (tech_area IN ('javascript', 'python', 'ruby', 'go', 'dsa')),
        difficulty TEXT NOT NULL,
        question_text_en TEXT NOT NULL,
        question_text_es TEXT,
        question_text_pt TEXT,
        expected_concepts TEXT,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS user_responses (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL,
        question_id INTEGER NOT NULL,
        response_text TEXT NOT NULL,
        response_type TEXT NOT NULL CHECK (response_type IN ('text', 'audio')),
        ai_feedback TEXT,
        score INTEGER CHECK (score IS NULL OR score BETWEEN 1 AND 10),
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id),
        FOREIGN KEY (question_id) REFERENCES questions (id)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// User methods

func (s *SQLiteStore) CreateUser(user *User) error {
	now := time.Now().UTC()
	res, err := s.db.Exec(
		"INSERT INTO users (whatsapp_number, name, preferred_language, tech_area, is_active, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		user.WhatsAppNumber, user.Name, user.PreferredLanguage, user.TechArea, true, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", user.WhatsAppNumber, ErrConflict)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	user.ID, _ = res.LastInsertId()
	user.IsActive = true
	user.CreatedAt = now
	return nil
}

const userColumns = "id, whatsapp_number, name, preferred_language, tech_area, is_active, created_at, last_question_sent, last_question_id"

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var user User
	var lastSent sql.NullTime
	var lastQuestion sql.NullInt64
	err := row.Scan(&user.ID, &user.WhatsAppNumber, &user.Name, &user.PreferredLanguage,
		&user.TechArea, &user.IsActive, &user.CreatedAt, &lastSent, &lastQuestion)
	if err != nil {
		return nil, err
	}
	if lastSent.Valid {
		t := lastSent.Time
		user.LastQuestionSent = &t
	}
	if lastQuestion.Valid {
		id := lastQuestion.Int64
		user.LastQuestionID = &id
	}
	return &user, nil
}

func (s *SQLiteStore) GetUserByNumber(whatsappNumber string) (*User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE whatsapp_number = ?", whatsappNumber)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user %s: %w", whatsappNumber, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

func (s *SQLiteStore) GetActiveUsers() ([]User, error) {
	rows, err := s.db.Query("SELECT " + userColumns + " FROM users WHERE is_active = TRUE ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query active users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (s *SQLiteStore) ListUsers() ([]User, error) {
	rows, err := s.db.Query("SELECT " + userColumns + " FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// DeactivateUser flips is_active off. Deactivating an already-inactive user
// succeeds; an unknown number returns ErrNotFound. Responses are never
// deleted.
func (s *SQLiteStore) DeactivateUser(whatsappNumber string) error {
	res, err := s.db.Exec("UPDATE users SET is_active = FALSE WHERE whatsapp_number = ?", whatsappNumber)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("user %s: %w", whatsappNumber, ErrNotFound)
	}
	return nil
}

// SetLastQuestion records a confirmed dispatch: the timestamp and the pending
// question pointer are written together, only after the provider accepted the
// send.
func (s *SQLiteStore) SetLastQuestion(userID, questionID int64, sentAt time.Time) error {
	res, err := s.db.Exec(
		"UPDATE users SET last_question_sent = ?, last_question_id = ? WHERE id = ?",
		sentAt.UTC(), questionID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update last question: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("user id %d: %w", userID, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) ClearPendingQuestion(userID int64) error {
	_, err := s.db.Exec("UPDATE users SET last_question_id = NULL WHERE id = ?", userID)
	if err != nil {
		return fmt.Errorf("failed to clear pending question: %w", err)
	}
	return nil
}

// Question methods

func (s *SQLiteStore) CreateQuestion(q *Question) error {
	now := time.Now().UTC()
	res, err := s.db.Exec(
		"INSERT INTO questions (tech_area, difficulty, question_text_en, question_text_es, question_text_pt, expected_concepts, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		q.TechArea, q.Difficulty, q.QuestionTextEN, q.QuestionTextES, q.QuestionTextPT, q.ExpectedConcepts, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert question: %w", err)
	}
	q.ID, _ = res.LastInsertId()
	q.CreatedAt = now
	return nil
}

const questionColumns = "id, tech_area, difficulty, question_text_en, question_text_es, question_text_pt, expected_concepts, created_at"

func scanQuestion(row interface{ Scan(...any) error }) (*Question, error) {
	var q Question
	var textES, textPT, concepts sql.NullString
	err := row.Scan(&q.ID, &q.TechArea, &q.Difficulty, &q.QuestionTextEN, &textES, &textPT, &concepts, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	if textES.Valid {
		q.QuestionTextES = &textES.String
	}
	if textPT.Valid {
		q.QuestionTextPT = &textPT.String
	}
	if concepts.Valid {
		q.ExpectedConcepts = &concepts.String
	}
	return &q, nil
}

func (s *SQLiteStore) GetQuestionByID(id int64) (*Question, error) {
	row := s.db.QueryRow("SELECT "+questionColumns+" FROM questions WHERE id = ?", id)
	q, err := scanQuestion(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("question id %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query question: %w", err)
	}
	return q, nil
}

func (s *SQLiteStore) GetQuestionsByArea(area TechArea) ([]Question, error) {
	rows, err := s.db.Query("SELECT "+questionColumns+" FROM questions WHERE tech_area = ? ORDER BY id", area)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()
	return collectQuestions(rows)
}

func (s *SQLiteStore) ListQuestions() ([]Question, error) {
	rows, err := s.db.Query("SELECT " + questionColumns + " FROM questions ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()
	return collectQuestions(rows)
}

func collectQuestions(rows *sql.Rows) ([]Question, error) {
	var questions []Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question row: %w", err)
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// QuestionExists reports whether a question with the given English text is
// already stored. Used to keep seeding idempotent.
func (s *SQLiteStore) QuestionExists(questionTextEN string) (bool, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM questions WHERE question_text_en = ?", questionTextEN).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check question existence: %w", err)
	}
	return n > 0, nil
}

// GetRandomQuestion picks one question in the area uniformly at random.
// When excludeUserID is non-zero, questions that user has answered since
// answeredSince are excluded. Returns ErrNotFound when the area is empty or
// exhausted.
func (s *SQLiteStore) GetRandomQuestion(area TechArea, excludeUserID int64, answeredSince time.Time) (*Question, error) {
	var row *sql.Row
	if excludeUserID != 0 {
		row = s.db.QueryRow(`
            SELECT `+questionColumns+` FROM questions
            WHERE tech_area = ?
              AND id NOT IN (
                  SELECT question_id FROM user_responses
                  WHERE user_id = ? AND created_at >= ?
              )
            ORDER BY RANDOM() LIMIT 1`,
			area, excludeUserID, answeredSince.UTC())
	} else {
		row = s.db.QueryRow("SELECT "+questionColumns+" FROM questions WHERE tech_area = ? ORDER BY RANDOM() LIMIT 1", area)
	}

	q, err := scanQuestion(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no question available in area %s: %w", area, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query random question: %w", err)
	}
	return q, nil
}

// Response methods

func (s *SQLiteStore) CreateResponse(resp *Response) error {
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(
		"INSERT INTO user_responses (user_id, question_id, response_text, response_type, created_at) VALUES (?, ?, ?, ?, ?)",
		resp.UserID, resp.QuestionID, resp.ResponseText, resp.ResponseType, resp.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert response: %w", err)
	}
	resp.ID, _ = res.LastInsertId()
	return nil
}

func (s *SQLiteStore) GetResponseByID(id int64) (*Response, error) {
	row := s.db.QueryRow(
		"SELECT id, user_id, question_id, response_text, response_type, ai_feedback, score, created_at FROM user_responses WHERE id = ?", id)
	var resp Response
	var feedback sql.NullString
	var score sql.NullInt64
	err := row.Scan(&resp.ID, &resp.UserID, &resp.QuestionID, &resp.ResponseText, &resp.ResponseType, &feedback, &score, &resp.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("response id %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query response: %w", err)
	}
	if feedback.Valid {
		resp.AIFeedback = &feedback.String
	}
	if score.Valid {
		n := int(score.Int64)
		resp.Score = &n
	}
	return &resp, nil
}

func (s *SQLiteStore) GetResponsesByUser(userID int64) ([]Response, error) {
	rows, err := s.db.Query(
		"SELECT id, user_id, question_id, response_text, response_type, ai_feedback, score, created_at FROM user_responses WHERE user_id = ? ORDER BY created_at", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}
	defer rows.Close()

	var responses []Response
	for rows.Next() {
		var resp Response
		var feedback sql.NullString
		var score sql.NullInt64
		if err := rows.Scan(&resp.ID, &resp.UserID, &resp.QuestionID, &resp.ResponseText, &resp.ResponseType, &feedback, &score, &resp.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan response row: %w", err)
		}
		if feedback.Valid {
			resp.AIFeedback = &feedback.String
		}
		if score.Valid {
			n := int(score.Int64)
			resp.Score = &n
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}

// UpdateResponseFeedback attaches AI feedback and score to a response in a
// single UPDATE. A nil score leaves the score column NULL (terminal
// "feedback unavailable" state).
func (s *SQLiteStore) UpdateResponseFeedback(responseID int64, feedback string, score *int) error {
	res, err := s.db.Exec("UPDATE user_responses SET ai_feedback = ?, score = ? WHERE id = ?", feedback, score, responseID)
	if err != nil {
		return fmt.Errorf("failed to update response feedback: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("response id %d: %w", responseID, ErrNotFound)
	}
	return nil
}
