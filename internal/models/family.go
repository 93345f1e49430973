package models

import (
	"time"

	"github.com/google/uuid"
)

type Family struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	CreatedBy      uuid.UUID `json:"created_by" db:"created_by"`
	InvitationCode string    `json:"invitation_code" db:"invitation_code"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// FamilyInfo is the family record as seen by one of its members.
type FamilyInfo struct {
	Family
	IsLeader bool `json:"is_leader"`
}

type FamilyMember struct {
	UserID   uuid.UUID `json:"user_id" db:"user_id"`
	Username string    `json:"username" db:"username"`
	Email    string    `json:"email" db:"email"`
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`
	IsLeader bool      `json:"is_leader" db:"is_leader"`
}

// FamilyTask is a task shared within a family and assigned to one member.
type FamilyTask struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	FamilyID       uuid.UUID  `json:"family_id" db:"family_id"`
	Title          string     `json:"title" db:"title"`
	Description    *string    `json:"description" db:"description"`
	Priority       int        `json:"priority" db:"priority"`
	Status         string     `json:"status" db:"status"`
	AssignedTo     uuid.UUID  `json:"assigned_to" db:"assigned_to"`
	AssignedToName string     `json:"assigned_to_name" db:"assigned_to_name"`
	CreatedBy      uuid.UUID  `json:"created_by" db:"created_by"`
	WeekStart      time.Time  `json:"week_start" db:"week_start"`
	CompletedAt    *time.Time `json:"completed_at" db:"completed_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

type FamilyTaskUpdate struct {
	Title       *string
	Description *string
	Priority    *int
	Status      *string
	AssignedTo  *uuid.UUID
}

// HasNonStatusChanges reports whether the update touches anything besides status.
func (u FamilyTaskUpdate) HasNonStatusChanges() bool {
	return u.Title != nil || u.Description != nil || u.Priority != nil || u.AssignedTo != nil
}
