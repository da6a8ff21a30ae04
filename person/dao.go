package person

import (
	"context"
	"database/sql"
	"doodle/database"
	"doodle/slot"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

const foreignKeyViolation = "23503"

func (a *Accessor) CreatePerson(ctx context.Context, person Person) (*Person, error) {
	person.Name = strings.TrimSpace(person.Name)
	if err := person.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	var id int64
	query := `INSERT INTO person (role, name) VALUES ($1, $2) RETURNING id`
	if err := a.db.QueryRowContext(ctx, query, string(person.Role), person.Name).Scan(&id); err != nil {
		return nil, fmt.Errorf("insert person: %w", err)
	}

	return &Person{
		ID:    id,
		Role:  person.Role,
		Name:  person.Name,
		Times: []time.Time{},
	}, nil
}

// GetPerson returns the person with the given id and role. A person stored
// under the other role is reported as ErrPersonNotFound.
func (a *Accessor) GetPerson(ctx context.Context, role Role, id int64) (*Person, error) {
	p, err := getPerson(ctx, a.db, role, id)
	if err != nil {
		return nil, err
	}
	if p.Times, err = listPersonSlots(ctx, a.db, id); err != nil {
		return nil, err
	}
	return p, nil
}

// AddSlots merges values into the person's slot set and returns the person
// with every slot they now hold. Either all values are valid and merged or
// nothing is written.
//
// TODO: slots can only be added; expose a removal path once clients need to
// withdraw availability.
func (a *Accessor) AddSlots(ctx context.Context, role Role, id int64, values []string) (*Person, error) {
	times, err := slot.ParseAll(values)
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	times = slot.Normalize(times)

	var p *Person
	err = database.WithTx(ctx, a.db, func(tx *sql.Tx) error {
		var err error
		if p, err = getPerson(ctx, tx, role, id); err != nil {
			return err
		}

		if len(times) > 0 {
			query := `INSERT INTO slot (person_id, time) SELECT $1, unnest($2::timestamptz[]) ON CONFLICT (person_id, time) DO NOTHING`
			if _, err := tx.ExecContext(ctx, query, id, pq.Array(slot.Format(times))); err != nil {
				var pqErr *pq.Error
				if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
					return ErrPersonNotFound
				}
				return fmt.Errorf("insert slots: %w", err)
			}
		}

		p.Times, err = listPersonSlots(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}

// ListSlots returns the slots of every given person regardless of role.
// Ids with no slots, including unknown ids, are absent from the result.
func (a *Accessor) ListSlots(ctx context.Context, ids []int64) (map[int64][]time.Time, error) {
	slots := make(map[int64][]time.Time, len(ids))
	if len(ids) == 0 {
		return slots, nil
	}

	query := `SELECT person_id, time FROM slot WHERE person_id = ANY($1) ORDER BY person_id, time`
	rows, err := a.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var personID int64
		var t time.Time
		if err := rows.Scan(&personID, &t); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		slots[personID] = append(slots[personID], t.UTC())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return slots, nil
}

func getPerson(ctx context.Context, q database.Querier, role Role, id int64) (*Person, error) {
	var p Person
	var storedRole string

	query := `SELECT id, role, name FROM person WHERE id = $1 AND role = $2`
	if err := q.QueryRowContext(ctx, query, id, string(role)).Scan(&p.ID, &storedRole, &p.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPersonNotFound
		}
		return nil, fmt.Errorf("scan: %w", err)
	}
	p.Role = Role(storedRole)

	return &p, nil
}

func listPersonSlots(ctx context.Context, q database.Querier, id int64) ([]time.Time, error) {
	query := `SELECT time FROM slot WHERE person_id = $1 ORDER BY time`
	rows, err := q.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()

	times := []time.Time{}
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		times = append(times, t.UTC())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return times, nil
}
