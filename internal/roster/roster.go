//go:generate mockgen -source=roster.go -destination=mocks/mock_roster.go -package=mocks

package roster

import (
	"context"
	"fmt"
	"unicode/utf8"

	apperrors "github.com/agbru/rosterfan/internal/errors"
)

const (
	// MaxNameLength is the longest accepted record name, in runes.
	MaxNameLength = 100
	// MinAge is the youngest accepted age when one is given.
	MinAge = 16
	// DefaultAge is applied to records that carry no age.
	DefaultAge = 20
)

// Record is one named entry of a roster. Only Name matters to the reporter;
// the remaining fields mirror the directory the roster is taken from.
type Record struct {
	ID      int64  `yaml:"id" json:"id"`
	Name    string `yaml:"name" json:"name"`
	Age     int    `yaml:"age,omitempty" json:"age,omitempty"`
	Faculty string `yaml:"faculty,omitempty" json:"faculty,omitempty"`
}

// Roster is an ordered, finite sequence of records.
type Roster []Record

// Names returns the record names in roster order, in a freshly allocated slice.
func (r Roster) Names() []string {
	names := make([]string, len(r))
	for i := range r {
		names[i] = r[i].Name
	}
	return names
}

// Provider supplies a roster on request. Implementations must return a
// roster that stays stable for the lifetime of the call's result.
type Provider interface {
	FetchRoster(ctx context.Context) (Roster, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context) (Roster, error)

// FetchRoster calls f.
func (f ProviderFunc) FetchRoster(ctx context.Context) (Roster, error) {
	return f(ctx)
}

// StaticProvider serves a fixed roster held in memory.
type StaticProvider struct {
	records Roster
}

// NewStaticProvider copies records so later changes by the caller are not seen
// by readers.
func NewStaticProvider(records Roster) *StaticProvider {
	cp := make(Roster, len(records))
	copy(cp, records)
	return &StaticProvider{records: cp}
}

// FromNames builds a static provider with sequential IDs from a list of names.
func FromNames(names ...string) *StaticProvider {
	records := make(Roster, len(names))
	for i, n := range names {
		records[i] = Record{ID: int64(i + 1), Name: n, Age: DefaultAge}
	}
	return &StaticProvider{records: records}
}

// FetchRoster returns a copy of the stored roster.
func (p *StaticProvider) FetchRoster(ctx context.Context) (Roster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cp := make(Roster, len(p.records))
	copy(cp, p.records)
	return cp, nil
}

// Demo returns the built-in roster used when no roster file is configured.
func Demo() *StaticProvider {
	return NewStaticProvider(Roster{
		{ID: 1, Name: "Anna", Age: 19, Faculty: "Gryffindor"},
		{ID: 2, Name: "Boris", Age: 20, Faculty: "Slytherin"},
		{ID: 3, Name: "Carl", Age: 18, Faculty: "Hufflepuff"},
		{ID: 4, Name: "Diana", Age: 21, Faculty: "Ravenclaw"},
		{ID: 5, Name: "Erin", Age: 17, Faculty: "Gryffindor"},
		{ID: 6, Name: "Finn", Age: 22, Faculty: "Hufflepuff"},
	})
}

// Validate checks every record and fills in defaults. It returns the first
// violation found as an apperrors.ValidationError.
func Validate(r Roster) error {
	for i := range r {
		rec := &r[i]
		n := utf8.RuneCountInString(rec.Name)
		if n == 0 {
			return apperrors.ValidationError{Field: fmt.Sprintf("records[%d].name", i), Message: "must not be empty"}
		}
		if n > MaxNameLength {
			return apperrors.ValidationError{Field: fmt.Sprintf("records[%d].name", i), Message: fmt.Sprintf("must be at most %d characters", MaxNameLength)}
		}
		if rec.Age == 0 {
			rec.Age = DefaultAge
		} else if rec.Age < MinAge {
			return apperrors.ValidationError{Field: fmt.Sprintf("records[%d].age", i), Message: fmt.Sprintf("must be at least %d", MinAge)}
		}
	}
	return nil
}
