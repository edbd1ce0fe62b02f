package domain

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisSession groups related executions and results for a user
type AnalysisSession struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NewAnalysisSession creates a named session
func NewAnalysisSession(name string, userID *string) *AnalysisSession {
	return &AnalysisSession{
		ID:        uuid.New(),
		Name:      name,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
}

type SessionTable struct {
	ID        string
	Name      string
	UserID    string
	CreatedAt string
}

func GetSessionTable() SessionTable {
	return SessionTable{
		ID:        "id",
		Name:      "name",
		UserID:    "user_id",
		CreatedAt: "created_at",
	}
}

func (SessionTable) TableName() string {
	return "analysis_sessions"
}
