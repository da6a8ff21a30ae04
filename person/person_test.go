package person_test

import (
	"context"
	"database/sql"
	"doodle/person"
	"doodle/slot"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertPersonQuery = `INSERT INTO person (role, name) VALUES ($1, $2) RETURNING id`
	selectPersonQuery = `SELECT id, role, name FROM person WHERE id = $1 AND role = $2`
	selectSlotsQuery  = `SELECT time FROM slot WHERE person_id = $1 ORDER BY time`
	insertSlotsQuery  = `INSERT INTO slot (person_id, time) SELECT $1, unnest($2::timestamptz[]) ON CONFLICT (person_id, time) DO NOTHING`
	listSlotsQuery    = `SELECT person_id, time FROM slot WHERE person_id = ANY($1) ORDER BY person_id, time`
)

func at(day, hour int) time.Time {
	return time.Date(2018, time.October, day, hour, 0, 0, 0, time.UTC)
}

func setupAccessor(t *testing.T) (*person.Accessor, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return person.NewAccessor(db), mock
}

func personRows(id int64, role person.Role, name string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "role", "name"}).AddRow(id, string(role), name)
}

func timeRows(times ...time.Time) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"time"})
	for _, t := range times {
		rows.AddRow(t)
	}
	return rows
}

func TestCreatePerson(t *testing.T) {
	t.Run("create candidate", func(t *testing.T) {
		a, mock := setupAccessor(t)

		mock.ExpectQuery(regexp.QuoteMeta(insertPersonQuery)).
			WithArgs("candidate", "Carl").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

		p, err := a.CreatePerson(context.Background(), person.Person{Role: person.Candidate, Name: "  Carl "})
		require.NoError(t, err)
		assert.Equal(t, int64(1), p.ID)
		assert.Equal(t, person.Candidate, p.Role)
		assert.Equal(t, "Carl", p.Name)
		assert.NotNil(t, p.Times)
		assert.Empty(t, p.Times)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty name", func(t *testing.T) {
		a, mock := setupAccessor(t)

		_, err := a.CreatePerson(context.Background(), person.Person{Role: person.Interviewer, Name: "   "})
		require.ErrorIs(t, err, person.ErrInvalidName)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown role", func(t *testing.T) {
		a, _ := setupAccessor(t)

		_, err := a.CreatePerson(context.Background(), person.Person{Role: "recruiter", Name: "Rita"})
		require.ErrorIs(t, err, person.ErrInvalidRole)
	})

	t.Run("db error", func(t *testing.T) {
		a, mock := setupAccessor(t)

		mock.ExpectQuery(regexp.QuoteMeta(insertPersonQuery)).
			WithArgs("interviewer", "Sarah").
			WillReturnError(sql.ErrConnDone)

		_, err := a.CreatePerson(context.Background(), person.Person{Role: person.Interviewer, Name: "Sarah"})
		require.ErrorIs(t, err, sql.ErrConnDone)
	})
}

func TestGetPerson(t *testing.T) {
	t.Run("with slots", func(t *testing.T) {
		a, mock := setupAccessor(t)

		mock.ExpectQuery(regexp.QuoteMeta(selectPersonQuery)).
			WithArgs(int64(2), "interviewer").
			WillReturnRows(personRows(2, person.Interviewer, "Sarah"))
		mock.ExpectQuery(regexp.QuoteMeta(selectSlotsQuery)).
			WithArgs(int64(2)).
			WillReturnRows(timeRows(at(15, 12), at(16, 9)))

		p, err := a.GetPerson(context.Background(), person.Interviewer, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(2), p.ID)
		assert.Equal(t, "Sarah", p.Name)
		assert.Equal(t, person.Interviewer, p.Role)
		assert.Equal(t, []time.Time{at(15, 12), at(16, 9)}, p.Times)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrong role is not found", func(t *testing.T) {
		a, mock := setupAccessor(t)

		mock.ExpectQuery(regexp.QuoteMeta(selectPersonQuery)).
			WithArgs(int64(2), "candidate").
			WillReturnError(sql.ErrNoRows)

		_, err := a.GetPerson(context.Background(), person.Candidate, 2)
		require.ErrorIs(t, err, person.ErrPersonNotFound)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		a, mock := setupAccessor(t)

		mock.ExpectQuery(regexp.QuoteMeta(selectPersonQuery)).
			WithArgs(int64(7), "candidate").
			WillReturnError(sql.ErrConnDone)

		_, err := a.GetPerson(context.Background(), person.Candidate, 7)
		require.ErrorIs(t, err, sql.ErrConnDone)
		require.NotErrorIs(t, err, person.ErrPersonNotFound)
	})
}

func TestAddSlots(t *testing.T) {
	t.Run("merges and returns full set", func(t *testing.T) {
		a, mock := setupAccessor(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectPersonQuery)).
			WithArgs(int64(1), "candidate").
			WillReturnRows(personRows(1, person.Candidate, "Carl"))
		mock.ExpectExec(regexp.QuoteMeta(insertSlotsQuery)).
			WithArgs(int64(1), pq.Array([]string{"2018-10-15T09:00:00Z", "2018-10-16T09:00:00Z"})).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(regexp.QuoteMeta(selectSlotsQuery)).
			WithArgs(int64(1)).
			WillReturnRows(timeRows(at(15, 9), at(16, 9), at(17, 9)))
		mock.ExpectCommit()

		// The same instant submitted three ways collapses to one slot.
		p, err := a.AddSlots(context.Background(), person.Candidate, 1, []string{
			"2018-10-16T09:00:00Z",
			"2018-10-15T09Z",
			"2018-10-15T11:00:00+02:00",
		})
		require.NoError(t, err)
		assert.Equal(t, "Carl", p.Name)
		assert.Equal(t, []time.Time{at(15, 9), at(16, 9), at(17, 9)}, p.Times)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no times only reads", func(t *testing.T) {
		a, mock := setupAccessor(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectPersonQuery)).
			WithArgs(int64(1), "candidate").
			WillReturnRows(personRows(1, person.Candidate, "Carl"))
		mock.ExpectQuery(regexp.QuoteMeta(selectSlotsQuery)).
			WithArgs(int64(1)).
			WillReturnRows(timeRows())
		mock.ExpectCommit()

		p, err := a.AddSlots(context.Background(), person.Candidate, 1, nil)
		require.NoError(t, err)
		assert.Empty(t, p.Times)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("malformed time touches nothing", func(t *testing.T) {
		for _, value := range []string{"2018-10-15T09:00:00", "2018-10-15T09:30:00Z", "soon"} {
			a, mock := setupAccessor(t)

			_, err := a.AddSlots(context.Background(), person.Candidate, 1, []string{"2018-10-15T09Z", value})
			require.ErrorIs(t, err, slot.ErrMalformedTime)

			var malformed *slot.MalformedTimeError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, value, malformed.Value)

			require.NoError(t, mock.ExpectationsWereMet())
		}
	})

	t.Run("unknown person rolls back", func(t *testing.T) {
		a, mock := setupAccessor(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectPersonQuery)).
			WithArgs(int64(3), "interviewer").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := a.AddSlots(context.Background(), person.Interviewer, 3, []string{"2018-10-15T09Z"})
		require.ErrorIs(t, err, person.ErrPersonNotFound)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("foreign key violation is not found", func(t *testing.T) {
		a, mock := setupAccessor(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectPersonQuery)).
			WithArgs(int64(3), "interviewer").
			WillReturnRows(personRows(3, person.Interviewer, "Philipp"))
		mock.ExpectExec(regexp.QuoteMeta(insertSlotsQuery)).
			WillReturnError(&pq.Error{Code: "23503"})
		mock.ExpectRollback()

		_, err := a.AddSlots(context.Background(), person.Interviewer, 3, []string{"2018-10-15T09Z"})
		require.ErrorIs(t, err, person.ErrPersonNotFound)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert error rolls back", func(t *testing.T) {
		a, mock := setupAccessor(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectPersonQuery)).
			WithArgs(int64(3), "interviewer").
			WillReturnRows(personRows(3, person.Interviewer, "Philipp"))
		mock.ExpectExec(regexp.QuoteMeta(insertSlotsQuery)).
			WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		_, err := a.AddSlots(context.Background(), person.Interviewer, 3, []string{"2018-10-15T09Z"})
		require.ErrorIs(t, err, sql.ErrConnDone)

		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListSlots(t *testing.T) {
	t.Run("groups by person", func(t *testing.T) {
		a, mock := setupAccessor(t)

		rows := sqlmock.NewRows([]string{"person_id", "time"}).
			AddRow(1, at(15, 9)).
			AddRow(1, at(16, 9)).
			AddRow(3, at(15, 9))
		mock.ExpectQuery(regexp.QuoteMeta(listSlotsQuery)).
			WithArgs(pq.Array([]int64{1, 3, 99})).
			WillReturnRows(rows)

		slots, err := a.ListSlots(context.Background(), []int64{1, 3, 99})
		require.NoError(t, err)
		assert.Equal(t, map[int64][]time.Time{
			1: {at(15, 9), at(16, 9)},
			3: {at(15, 9)},
		}, slots)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no ids", func(t *testing.T) {
		a, mock := setupAccessor(t)

		slots, err := a.ListSlots(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, slots)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		a, mock := setupAccessor(t)

		mock.ExpectQuery(regexp.QuoteMeta(listSlotsQuery)).WillReturnError(sql.ErrConnDone)

		_, err := a.ListSlots(context.Background(), []int64{1})
		require.ErrorIs(t, err, sql.ErrConnDone)
	})
}

func TestParseRole(t *testing.T) {
	r, err := person.ParseRole(" Candidate ")
	require.NoError(t, err)
	assert.Equal(t, person.Candidate, r)

	r, err = person.ParseRole("interviewer")
	require.NoError(t, err)
	assert.Equal(t, person.Interviewer, r)

	_, err = person.ParseRole("hr")
	require.ErrorIs(t, err, person.ErrInvalidRole)
}
