package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"invoice-backend/internal/apperr"
	"invoice-backend/internal/logging"
	"invoice-backend/internal/middleware"
	"invoice-backend/pkg/utils"
)

// writeError maps the error kinds onto HTTP statuses. Anything unrecognised
// is logged and reported as a 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, events logging.Events, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		utils.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrDuplicate):
		utils.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperr.ErrValidation):
		utils.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrAuth):
		w.Header().Set("WWW-Authenticate", "Bearer")
		utils.Error(w, http.StatusUnauthorized, "Could not validate credentials")
	case errors.Is(err, apperr.ErrForbidden):
		utils.Error(w, http.StatusForbidden, "Not enough permissions")
	default:
		events.Error(err, r.Method+" "+r.URL.Path, middleware.UserIDFromContext(r.Context()))
		utils.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body", apperr.ErrValidation)
	}
	return nil
}

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id", apperr.ErrValidation)
	}
	return id, nil
}

func deleted(w http.ResponseWriter, what string) {
	utils.JSON(w, http.StatusOK, map[string]string{"message": what + " deleted successfully"})
}
