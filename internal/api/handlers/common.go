package handlers

import (
	"database/sql"
	stderrors "errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "boardflow/internal/api/context"
)

func paramFrom(r *http.Request, name string) string {
	params, _ := r.Context().Value(apiContext.Params).(httprouter.Params)
	return params.ByName(name)
}

func isNotFound(err error) bool {
	return stderrors.Is(err, sql.ErrNoRows)
}
