// Package offices loads the office registry: which CRM location each office
// maps to, which time zone its date ranges resolve in, and who receives its
// critical alerts.
package offices

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AllOfficesID selects every office at once; no location filter is applied.
const AllOfficesID = "all"

// ErrUnknownOffice is returned for an office ID not present in the registry.
var ErrUnknownOffice = errors.New("unknown office")

// Office is one entry of the registry.
type Office struct {
	ID              string   `yaml:"id" json:"id"`
	Name            string   `yaml:"name" json:"name"`
	LocationID      string   `yaml:"locationId" json:"locationId,omitempty"`
	Timezone        string   `yaml:"timezone" json:"timezone"`
	AlertRecipients []string `yaml:"alertRecipients" json:"-"`

	loc *time.Location
}

// Location returns the office's time zone, UTC when unset.
func (o Office) Location() *time.Location {
	if o.loc != nil {
		return o.loc
	}
	return time.UTC
}

type file struct {
	DefaultTimezone string   `yaml:"defaultTimezone"`
	Offices         []Office `yaml:"offices"`
}

// Registry is an immutable, validated set of offices.
type Registry struct {
	all     Office
	offices map[string]Office
	order   []string
}

// Load reads and validates the registry at path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read office registry: %w", err)
	}
	return Parse(data)
}

// Parse validates a YAML registry document.
func Parse(data []byte) (*Registry, error) {
	var doc file
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode office registry: %w", err)
	}

	defaultTZ := strings.TrimSpace(doc.DefaultTimezone)
	if defaultTZ == "" {
		defaultTZ = "UTC"
	}
	defaultLoc, err := time.LoadLocation(defaultTZ)
	if err != nil {
		return nil, fmt.Errorf("default timezone %q: %w", defaultTZ, err)
	}

	r := &Registry{
		all:     Office{ID: AllOfficesID, Name: "All offices", Timezone: defaultTZ, loc: defaultLoc},
		offices: make(map[string]Office, len(doc.Offices)),
	}

	for i, o := range doc.Offices {
		o.ID = strings.ToLower(strings.TrimSpace(o.ID))
		if o.ID == "" {
			return nil, fmt.Errorf("office #%d: id is required", i+1)
		}
		if o.ID == AllOfficesID {
			return nil, fmt.Errorf("office #%d: id %q is reserved", i+1, AllOfficesID)
		}
		if _, dup := r.offices[o.ID]; dup {
			return nil, fmt.Errorf("office %q: duplicate id", o.ID)
		}
		if o.Name == "" {
			o.Name = o.ID
		}
		if strings.TrimSpace(o.Timezone) == "" {
			o.Timezone = defaultTZ
		}
		loc, err := time.LoadLocation(o.Timezone)
		if err != nil {
			return nil, fmt.Errorf("office %q: timezone %q: %w", o.ID, o.Timezone, err)
		}
		o.loc = loc

		r.all.AlertRecipients = append(r.all.AlertRecipients, o.AlertRecipients...)
		r.offices[o.ID] = o
		r.order = append(r.order, o.ID)
	}

	sort.Strings(r.order)
	r.all.AlertRecipients = dedupe(r.all.AlertRecipients)
	return r, nil
}

// Resolve returns the office for id. An empty id or "all" yields the
// aggregate pseudo-office.
func (r *Registry) Resolve(id string) (Office, error) {
	key := strings.ToLower(strings.TrimSpace(id))
	if key == "" || key == AllOfficesID {
		return r.all, nil
	}
	o, ok := r.offices[key]
	if !ok {
		return Office{}, fmt.Errorf("%w: %s", ErrUnknownOffice, id)
	}
	return o, nil
}

// List returns every configured office sorted by ID, without the aggregate.
func (r *Registry) List() []Office {
	out := make([]Office, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.offices[id])
	}
	return out
}

// IDs returns every office ID followed by AllOfficesID.
func (r *Registry) IDs() []string {
	return append(append([]string(nil), r.order...), AllOfficesID)
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
