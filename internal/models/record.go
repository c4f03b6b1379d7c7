package models

import "time"

// Record is implemented by pointers to every record type.
type Record interface {
	Kind() Kind
	GetID() string
	SetID(id string)
	GetCreatedAt() time.Time
	SetCreatedAt(t time.Time)
	IsSynced() bool
	SetSynced(synced bool)

	// OrganizationRef is the owning organization id ("" when not applicable).
	// For organizations it is the record's own id.
	OrganizationRef() string

	// Creator is the id of the admin that created the record ("" when unknown).
	Creator() string

	Validate() error
}

// Meta holds the fields shared by all records.
type Meta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Synced    bool      `json:"-"`
}

func (m *Meta) GetID() string             { return m.ID }
func (m *Meta) SetID(id string)           { m.ID = id }
func (m *Meta) GetCreatedAt() time.Time   { return m.CreatedAt }
func (m *Meta) SetCreatedAt(t time.Time)  { m.CreatedAt = t }
func (m *Meta) IsSynced() bool            { return m.Synced }
func (m *Meta) SetSynced(synced bool)     { m.Synced = synced }

// Filter narrows a read. Empty fields match everything.
type Filter struct {
	OrganizationID string
	CreatedBy      string
}

// IsZero reports whether the filter matches every record.
func (f Filter) IsZero() bool {
	return f.OrganizationID == "" && f.CreatedBy == ""
}

// Match reports whether r passes the filter.
func (f Filter) Match(r Record) bool {
	if f.OrganizationID != "" && r.OrganizationRef() != f.OrganizationID {
		return false
	}
	if f.CreatedBy != "" && r.Creator() != f.CreatedBy {
		return false
	}
	return true
}

// Apply returns the records of in that pass the filter, preserving order.
func Apply[T Record](f Filter, in []T) []T {
	if f.IsZero() {
		return in
	}
	out := make([]T, 0, len(in))
	for _, r := range in {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
