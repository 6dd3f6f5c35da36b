package boards

import "time"

// Column is an ordered lane on a board.
type Column struct {
	ID       int64  `json:"id"`
	BoardID  int64  `json:"board_id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// Board is a Kanban board inside a workspace. Columns are kept sorted by
// position.
type Board struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	WorkspaceID int64     `json:"workspace_id"`
	Name        string    `json:"name"`
	Columns     []Column  `json:"columns,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
