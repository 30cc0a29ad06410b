package schedule

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"ringside/internal/domain/tryout"
)

//go:embed schedule.yaml
var defaultSchedule []byte

// Catalog is the static list of tryout sessions grouped by cohort.
// It is never mutated after loading and is safe for concurrent use.
type Catalog struct {
	groups  []Group
	entries []Entry
	byID    map[string]Entry
}

// Default returns the catalog embedded in the binary.
// It panics if the embedded file is invalid, which is caught by tests.
func Default() *Catalog {
	c, err := Parse(defaultSchedule)
	if err != nil {
		panic(fmt.Sprintf("schedule: embedded catalog is invalid: %v", err))
	}
	return c
}

// LoadFile reads a catalog from a YAML file on disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schedule: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads a catalog from YAML.
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read schedule: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
// PRE: data is a YAML document with a top-level "groups" list
// POST: Returns a catalog with unique session IDs and known cohorts/activities
func Parse(data []byte) (*Catalog, error) {
	var doc struct {
		Groups []Group `yaml:"groups"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	return New(doc.Groups)
}

// New builds a catalog from groups, validating every session.
func New(groups []Group) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]Entry)}
	for _, g := range groups {
		if _, err := tryout.ParseCohort(string(g.Cohort)); err != nil || g.Cohort == "" {
			return nil, fmt.Errorf("group %q: %w", g.Cohort, tryout.ErrUnknownCohort)
		}
		for _, s := range g.Sessions {
			if err := s.Validate(); err != nil {
				return nil, err
			}
			if !g.Cohort.IsAdult() && s.Activity != tryout.ActivityBoxing {
				return nil, fmt.Errorf("session %s: %w", s.ID, ErrKidsKickboxing)
			}
			if _, dup := c.byID[s.ID]; dup {
				return nil, fmt.Errorf("session %s: %w", s.ID, ErrDuplicateID)
			}
			e := Entry{Cohort: g.Cohort, Session: s}
			c.byID[s.ID] = e
			c.entries = append(c.entries, e)
		}
		c.groups = append(c.groups, g)
	}
	return c, nil
}

// Groups returns the cohorts and their sessions in file order.
func (c *Catalog) Groups() []Group {
	out := make([]Group, len(c.groups))
	copy(out, c.groups)
	return out
}

// Cohorts lists the cohorts that have at least one session, in file order.
func (c *Catalog) Cohorts() []tryout.Cohort {
	out := make([]tryout.Cohort, 0, len(c.groups))
	for _, g := range c.groups {
		if len(g.Sessions) > 0 {
			out = append(out, g.Cohort)
		}
	}
	return out
}

// Entries returns every session flattened, in file order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Lookup finds a session by its stable ID.
func (c *Catalog) Lookup(id string) (Entry, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// Filter returns the sessions selectable for the given answers.
// Only the Doubles branch offers sessions. Adult cohorts match on activity
// and offer nothing until an activity is chosen; the kids cohort offers
// every boxing session.
func (c *Catalog) Filter(t tryout.Type, cohort tryout.Cohort, activity tryout.Activity) []Entry {
	if t != tryout.TypeDoubles || cohort == "" {
		return nil
	}
	var out []Entry
	for _, e := range c.entries {
		if e.Cohort != cohort {
			continue
		}
		if cohort.IsAdult() {
			if activity != "" && e.Activity == activity {
				out = append(out, e)
			}
			continue
		}
		if e.Activity == tryout.ActivityBoxing {
			out = append(out, e)
		}
	}
	return out
}

// Offers reports whether id is among the sessions Filter would return.
func (c *Catalog) Offers(t tryout.Type, cohort tryout.Cohort, activity tryout.Activity, id string) bool {
	for _, e := range c.Filter(t, cohort, activity) {
		if e.ID == id {
			return true
		}
	}
	return false
}
