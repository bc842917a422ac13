package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the board column a task sits in
type TaskStatus string

const (
	TaskStatusReadyToStart TaskStatus = "READY_TO_START"
	TaskStatusInProgress   TaskStatus = "IN_PROGRESS"
	TaskStatusDone         TaskStatus = "DONE"
)

// TaskPriority represents how urgent a task is
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
)

// Task is a card on a user's board
type Task struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	Title       string       `json:"title" db:"title"`
	Description string       `json:"description,omitempty" db:"description"`
	Status      TaskStatus   `json:"status" db:"status"`
	Priority    TaskPriority `json:"priority" db:"priority"`
	AuthorID    uuid.UUID    `json:"author_id" db:"author_id"`
	AssignedTo  uuid.UUID    `json:"assigned_to" db:"assigned_to"`
	TargetEnd   *time.Time   `json:"target_end,omitempty" db:"target_end"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Task model
func (Task) TableName() string {
	return "tasks"
}

// NewTask creates a new task authored by and assigned to authorID
func NewTask(authorID uuid.UUID, title, description string, priority TaskPriority) *Task {
	now := time.Now()
	if priority == "" {
		priority = TaskPriorityMedium
	}
	return &Task{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Status:      TaskStatusReadyToStart,
		Priority:    priority,
		AuthorID:    authorID,
		AssignedTo:  authorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Subtask is a checklist item belonging to a task
type Subtask struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	TaskID    uuid.UUID  `json:"task_id" db:"task_id"`
	Title     string     `json:"title" db:"title"`
	Status    TaskStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Subtask model
func (Subtask) TableName() string {
	return "subtasks"
}

// NewSubtask creates a new subtask under taskID
func NewSubtask(taskID uuid.UUID, title string) *Subtask {
	return &Subtask{
		ID:        uuid.New(),
		TaskID:    taskID,
		Title:     title,
		Status:    TaskStatusReadyToStart,
		CreatedAt: time.Now(),
	}
}
