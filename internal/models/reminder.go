package models

import "time"

// MaxMessageLength is the longest reminder text accepted, in runes.
const MaxMessageLength = 2000

type Reminder struct {
	ID                 string    `json:"id"`       // UUID, durable
	ShortID            int       `json:"short_id"` // 1000-9999, what users type
	OwnerID            int64     `json:"owner_id"`
	OwnerName          string    `json:"owner_name"`
	CommunityID        int64     `json:"community_id"`   // chat the reminder was created in
	DestinationID      int64     `json:"destination_id"` // chat to deliver to when the DM fails
	Message            string    `json:"message"`
	TriggerAt          time.Time `json:"trigger_at"`
	OriginalExpression string    `json:"original_expression"`
	Timezone           string    `json:"timezone"`
	Repeat             *Cadence  `json:"-"`
	Active             bool      `json:"active"`
	Fired              bool      `json:"fired"` // retired by delivery; the owner can still snooze it
	Snoozed            bool      `json:"snoozed"`
	SnoozeCount        int       `json:"snooze_count"`
	ParentID           *string   `json:"parent_id"` // set on successors spawned by a repeat
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// IsRecurring returns true if this reminder has a cadence
func (r *Reminder) IsRecurring() bool {
	return r.Repeat != nil
}

// Successor copies what a repeat inherits and resets snooze state.
func (r *Reminder) Successor(triggerAt time.Time) *Reminder {
	parent := r.ID
	var repeat *Cadence
	if r.Repeat != nil {
		c := *r.Repeat
		repeat = &c
	}
	return &Reminder{
		OwnerID:            r.OwnerID,
		OwnerName:          r.OwnerName,
		CommunityID:        r.CommunityID,
		DestinationID:      r.DestinationID,
		Message:            r.Message,
		TriggerAt:          triggerAt,
		OriginalExpression: r.OriginalExpression,
		Timezone:           r.Timezone,
		Repeat:             repeat,
		Active:             true,
		ParentID:           &parent,
	}
}

// ReminderPatch is a partial update. Nil fields are left untouched.
type ReminderPatch struct {
	Message            *string
	TriggerAt          *time.Time
	OriginalExpression *string
	Timezone           *string
	Active             *bool
	Fired              *bool
	Snoozed            *bool
	IncrementSnooze    bool
}

// Apply writes the set fields of p onto r.
func (p ReminderPatch) Apply(r *Reminder) {
	if p.Message != nil {
		r.Message = *p.Message
	}
	if p.TriggerAt != nil {
		r.TriggerAt = *p.TriggerAt
	}
	if p.OriginalExpression != nil {
		r.OriginalExpression = *p.OriginalExpression
	}
	if p.Timezone != nil {
		r.Timezone = *p.Timezone
	}
	if p.Active != nil {
		r.Active = *p.Active
	}
	if p.Fired != nil {
		r.Fired = *p.Fired
	}
	if p.Snoozed != nil {
		r.Snoozed = *p.Snoozed
	}
	if p.IncrementSnooze {
		r.SnoozeCount++
	}
}
