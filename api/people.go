package api

import (
	"doodle/person"
	"doodle/slot"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxFormMemory = 1 << 20

func (a *API) createPerson(w http.ResponseWriter, r *http.Request) {
	role, err := person.ParseRole(mux.Vars(r)["role"])
	if err != nil {
		a.Error(w, http.StatusNotFound, err.Error())
		return
	}

	if err := parseForm(r); err != nil {
		a.Error(w, http.StatusBadRequest, "invalid form body")
		return
	}

	name := strings.TrimSpace(r.PostForm.Get("name"))
	if name == "" {
		a.Error(w, http.StatusBadRequest, person.ErrInvalidName.Error())
		return
	}

	personAccessor := person.NewAccessor(a.db)
	p, err := personAccessor.CreatePerson(r.Context(), person.Person{Role: role, Name: name})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.Response(w, http.StatusOK, p)
}

func (a *API) getPerson(w http.ResponseWriter, r *http.Request) {
	role, id, ok := a.personRef(w, r)
	if !ok {
		return
	}

	personAccessor := person.NewAccessor(a.db)
	p, err := personAccessor.GetPerson(r.Context(), role, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.Response(w, http.StatusOK, p)
}

func (a *API) addSlots(w http.ResponseWriter, r *http.Request) {
	role, id, ok := a.personRef(w, r)
	if !ok {
		return
	}

	if err := parseForm(r); err != nil {
		a.Error(w, http.StatusBadRequest, "invalid form body")
		return
	}

	times := r.PostForm["time"]
	if len(times) == 0 {
		a.Error(w, http.StatusBadRequest, "at least one time is required")
		return
	}

	personAccessor := person.NewAccessor(a.db)
	p, err := personAccessor.AddSlots(r.Context(), role, id, times)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.Response(w, http.StatusOK, p)
}

func (a *API) personRef(w http.ResponseWriter, r *http.Request) (person.Role, int64, bool) {
	vars := mux.Vars(r)

	role, err := person.ParseRole(vars["role"])
	if err != nil {
		a.Error(w, http.StatusNotFound, err.Error())
		return "", 0, false
	}

	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		a.Error(w, http.StatusNotFound, person.ErrPersonNotFound.Error())
		return "", 0, false
	}
	return role, id, true
}

// fail maps accessor errors onto responses. Anything unrecognised is a store
// failure and is logged rather than shown to the client.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	var malformed *slot.MalformedTimeError
	switch {
	case errors.As(err, &malformed):
		a.Error(w, http.StatusBadRequest, malformed.Error())
	case errors.Is(err, person.ErrInvalidName), errors.Is(err, person.ErrInvalidRole):
		a.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, person.ErrPersonNotFound):
		a.Error(w, http.StatusNotFound, err.Error())
	default:
		a.log.Error("request failed",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		a.Error(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return fmt.Errorf("parse multipart form: %w", err)
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("parse form: %w", err)
	}
	return nil
}
