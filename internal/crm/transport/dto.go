// Package transport provides the wire DTOs of the upstream CRM API. Field
// names follow the CRM; several records carry legacy aliases that the
// normalize package folds into one canonical value.
package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
)

// ErrNonFiniteNumber rejects quoted NaN and infinities, which strconv accepts
// but JSON cannot carry back out.
var ErrNonFiniteNumber = errors.New("crm: non-finite number")

// ListResponse is the paged envelope of every collection endpoint.
type ListResponse[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

// Ref points at another CRM record.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Contact is a raw CRM contact.
type Contact struct {
	JNID           string   `json:"jnid"`
	FirstName      string   `json:"first_name"`
	LastName       string   `json:"last_name"`
	DisplayName    string   `json:"display_name"`
	Email          string   `json:"email"`
	HomePhone      string   `json:"home_phone"`
	MobilePhone    string   `json:"mobile_phone"`
	WorkPhone      string   `json:"work_phone"`
	RecordTypeName string   `json:"record_type_name"`
	IsCustomer     *bool    `json:"is_customer"`
	DateCreated    Epoch    `json:"date_created"`
	Location       *Ref     `json:"location"`
	Tags           []string `json:"tags"`
}

// Job is a raw CRM job.
type Job struct {
	JNID         string     `json:"jnid"`
	Name         string     `json:"name"`
	Number       string     `json:"number"`
	Status       FlexInt    `json:"status"`
	StatusName   string     `json:"status_name"`
	IsActive     *bool      `json:"is_active"`
	IsClosed     bool       `json:"is_closed"`
	IsArchived   bool       `json:"is_archived"`
	DateCreated  Epoch      `json:"date_created"`
	LastEstimate *FlexFloat `json:"last_estimate"`
	SalesRepName string     `json:"sales_rep_name"`
	Primary      *Ref       `json:"primary"`
	Customer     string     `json:"customer"`
	Location     *Ref       `json:"location"`
}

// Task is a raw CRM task. Completion arrives under three historical shapes:
// is_completed, completed, or a textual status.
type Task struct {
	JNID          string `json:"jnid"`
	Title         string `json:"title"`
	CreatedByName string `json:"created_by_name"`
	AssignedTo    string `json:"assigned_to"`
	Owners        []Ref  `json:"owners"`
	SalesRepName  string `json:"sales_rep_name"`
	IsCompleted   *bool  `json:"is_completed"`
	Completed     *bool  `json:"completed"`
	Status        string `json:"status"`
	IsActive      *bool  `json:"is_active"`
	IsArchived    bool   `json:"is_archived"`
	DateCreated   Epoch  `json:"date_created"`
}

// Estimate is a raw CRM estimate; only its creation time is used.
type Estimate struct {
	JNID        string `json:"jnid"`
	DateCreated Epoch  `json:"date_created"`
}

// Activity is a raw CRM activity (note, call, email).
type Activity struct {
	JNID        string `json:"jnid"`
	Primary     *Ref   `json:"primary"`
	DateCreated Epoch  `json:"date_created"`
}

// Attachment is a raw CRM file record.
type Attachment struct {
	JNID        string `json:"jnid"`
	DateCreated Epoch  `json:"date_created"`
}

// SummaryKPI is one pre-aggregated KPI.
type SummaryKPI struct {
	Value         FlexFloat `json:"value"`
	ChangePercent FlexFloat `json:"changePercent"`
}

// Summary is the optional pre-aggregated dashboard document. Charts are kept
// raw so the normalize package can decode them into domain shapes.
type Summary struct {
	KPIs   map[string]SummaryKPI `json:"kpis"`
	Charts json.RawMessage       `json:"charts"`
}

// Epoch is seconds since the Unix epoch. The CRM sends it as a number, a
// numeric string, or null.
type Epoch int64

// UnmarshalJSON accepts integers, floats and numeric strings.
func (e *Epoch) UnmarshalJSON(data []byte) error {
	v, err := flexNumber(data)
	if err != nil {
		return err
	}
	*e = Epoch(int64(v))
	return nil
}

// FlexInt is an integer that may arrive quoted.
type FlexInt int

// UnmarshalJSON accepts integers and numeric strings.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	v, err := flexNumber(data)
	if err != nil {
		return err
	}
	*f = FlexInt(int(v))
	return nil
}

// FlexFloat is a float that may arrive quoted.
type FlexFloat float64

// UnmarshalJSON accepts numbers and numeric strings.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	v, err := flexNumber(data)
	if err != nil {
		return err
	}
	*f = FlexFloat(v)
	return nil
}

func flexNumber(data []byte) (float64, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0, nil
	}
	var v float64
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, err
		}
		if s == "" {
			return 0, nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		v = parsed
	} else if err := json.Unmarshal(data, &v); err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNonFiniteNumber
	}
	return v, nil
}
