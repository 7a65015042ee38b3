package httputil

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/proforma-api/pkg/domain"
)

// URLParamUUID parses a chi path parameter as a UUID. It writes a 400 and
// returns false when the value is malformed.
func URLParamUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// PageRequestFromQuery reads ?page= and ?page_size=. Missing or unparsable
// values fall back to the defaults.
func PageRequestFromQuery(r *http.Request) domain.PageRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))
	return domain.PageRequest{Page: page, PageSize: size}.Normalize()
}

// QueryBool reports whether the query parameter is set to a true value.
func QueryBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}
