package model

import (
	"time"
)

type Status string

const (
	StatusBorrowed Status = "BORROWED"
	StatusOverdue  Status = "OVERDUE"
	StatusReturned Status = "RETURNED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusBorrowed, StatusOverdue, StatusReturned:
		return true
	}
	return false
}

// DeriveStatus is the single rule for a record's status: returned wins,
// otherwise the record is overdue strictly after its due date.
func DeriveStatus(returnedAt *time.Time, dueDate, now time.Time) Status {
	if returnedAt != nil {
		return StatusReturned
	}
	if now.After(dueDate) {
		return StatusOverdue
	}
	return StatusBorrowed
}

type Book struct {
	ID              string    `json:"id" db:"id"`
	ISBN            string    `json:"isbn" db:"isbn"`
	Title           string    `json:"title" db:"title"`
	Author          string    `json:"author" db:"author"`
	CategoryID      *string   `json:"categoryId,omitempty" db:"category_id"`
	TotalCopies     int       `json:"totalCopies" db:"total_copies"`
	AvailableCopies int       `json:"availableCopies" db:"available_copies"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
}

type Reader struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	Address   string    `json:"address" db:"address"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type Lending struct {
	ID         string     `json:"id" db:"id"`
	BookID     string     `json:"bookId" db:"book_id"`
	ReaderID   string     `json:"readerId" db:"reader_id"`
	BorrowedAt time.Time  `json:"borrowedAt" db:"borrowed_at"`
	DueDate    time.Time  `json:"dueDate" db:"due_date"`
	ReturnedAt *time.Time `json:"returnedAt" db:"returned_at"`
	Status     Status     `json:"status" db:"status"`
}

// WithDerivedStatus returns a copy whose Status reflects now.
func (l Lending) WithDerivedStatus(now time.Time) Lending {
	l.Status = DeriveStatus(l.ReturnedAt, l.DueDate, now)
	return l
}

// LendingDetails is a lending record with its book and reader attached.
type LendingDetails struct {
	Lending
	Book   Book   `json:"book"`
	Reader Reader `json:"reader"`
}

type LendRequest struct {
	// ActingUserID comes from the X-User-Id header, never the body.
	ActingUserID string `json:"-"`
	BookID       string `json:"bookId" validate:"required"`
	ReaderID     string `json:"readerId" validate:"required"`
	// LoanDays is optional, nil means the configured default.
	LoanDays *int `json:"loanDays,omitempty"`
}

type SetCopiesRequest struct {
	TotalCopies *int `json:"totalCopies" validate:"required"`
}

// LendingFilter selects lending records. Status is matched against the
// derived status at the query's now, not the persisted column.
type LendingFilter struct {
	Status   Status
	Active   bool
	ReaderID string
	BookID   string
	DueFrom  *time.Time
	DueTo    *time.Time
	Limit    int
	Offset   int
}

type ListLendings struct {
	Paging `json:",inline"`
	Items  []Lending `json:"items"`
}

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

type MonthlyCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type LendingStats struct {
	Total   int            `json:"total"`
	Overdue int            `json:"overdue"`
	Monthly []MonthlyCount `json:"monthly"`
}

type Action string

const (
	ActionCreate        Action = "CREATE"
	ActionUpdate        Action = "UPDATE"
	ActionDelete        Action = "DELETE"
	ActionLend          Action = "LEND"
	ActionReturn        Action = "RETURN"
	ActionLogin         Action = "LOGIN"
	ActionLogout        Action = "LOGOUT"
	ActionResetPassword Action = "RESET_PASSWORD"
	ActionSendEmail     Action = "SEND_EMAIL"
)

const (
	AuditEntityLending = "Lending Record"
	AuditEntityBook    = "Book"

	// SystemUserID acts for transitions nobody requested, like the overdue sweep.
	SystemUserID = "system"
)

// AuditEvent is append-only.
type AuditEvent struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"userId" db:"user_id"`
	Action      Action    `json:"action" db:"action"`
	Entity      string    `json:"entity" db:"entity"`
	EntityID    string    `json:"entityId" db:"entity_id"`
	Description string    `json:"description" db:"description"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
}
