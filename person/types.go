package person

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrPersonNotFound = errors.New("person not found")
	ErrInvalidName    = errors.New("name is required")
	ErrInvalidRole    = errors.New("invalid role")
)

type Role string

const (
	Candidate   Role = "candidate"
	Interviewer Role = "interviewer"
)

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if err := r.Validate(); err != nil {
		return "", err
	}
	return r, nil
}

func (r Role) Validate() error {
	switch r {
	case Candidate, Interviewer:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRole, string(r))
	}
}

// Person is a candidate or interviewer together with the hourly slots they
// are available for, ascending.
type Person struct {
	ID    int64       `json:"id"`
	Role  Role        `json:"-"`
	Name  string      `json:"name"`
	Times []time.Time `json:"times"`
}

func (p *Person) Validate() error {
	if err := p.Role.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidName
	}
	return nil
}
