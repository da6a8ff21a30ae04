package api

import (
	"doodle/interview"
	"doodle/person"
	"fmt"
	"net/http"
	"strconv"
)

func (a *API) getCommonSlots(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query()["id"]
	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			a.Error(w, http.StatusBadRequest, fmt.Sprintf("invalid id %q", s))
			return
		}
		ids = append(ids, id)
	}

	interviewAccessor := interview.NewAccessor(person.NewAccessor(a.db))
	common, err := interviewAccessor.FindCommonSlots(r.Context(), ids)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.Response(w, http.StatusOK, common)
}
