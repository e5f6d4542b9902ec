// Package domain holds the read-only CRM record snapshots consumed by the
// dashboard engine and the payload it produces.
package domain

import "time"

// Contact is a CRM person record.
type Contact struct {
	ID          string
	FirstName   string
	LastName    string
	DisplayName string
	Email       string
	Phone       string
	IsCustomer  bool
	CreatedAt   time.Time
}

// Name returns the best available human label for the contact.
func (c Contact) Name() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	switch {
	case c.FirstName != "" && c.LastName != "":
		return c.FirstName + " " + c.LastName
	case c.FirstName != "":
		return c.FirstName
	case c.LastName != "":
		return c.LastName
	}
	return c.Email
}

// Job is a CRM job (project) record.
type Job struct {
	ID           string
	Name         string
	CustomerID   string
	StatusCode   int
	StatusLabel  string
	IsActive     bool
	IsClosed     bool
	IsArchived   bool
	CreatedAt    time.Time
	LastEstimate *float64
	SalesRepName string
}

// Task is a CRM task record.
type Task struct {
	ID            string
	Title         string
	CreatedByName string
	AssignedTo    string
	Owners        []string
	SalesRepName  string
	IsCompleted   bool
	IsActive      bool
	IsArchived    bool
	CreatedAt     time.Time
}

// Estimate is a count-only input.
type Estimate struct {
	ID        string
	CreatedAt time.Time
}

// Activity is a count-only input; ContactID feeds the engagement ratio.
type Activity struct {
	ID        string
	ContactID string
	CreatedAt time.Time
}

// Attachment is a count-only input.
type Attachment struct {
	ID        string
	CreatedAt time.Time
}

// Records bundles the six collections of one aggregation run.
type Records struct {
	Contacts    []Contact
	Jobs        []Job
	Tasks       []Task
	Estimates   []Estimate
	Activities  []Activity
	Attachments []Attachment
}
