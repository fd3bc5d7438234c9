// Package controllers holds the HTTP handlers of the PDV API.
package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mercadobetel/pdv/app/models"
	"github.com/mercadobetel/pdv/pkg/bind"
	"github.com/mercadobetel/pdv/pkg/response"
	"github.com/mercadobetel/pdv/pkg/router"
)

// idParam reads a numeric URL parameter.
func idParam(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(router.Param(r, name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &models.ValidationError{Field: name, Message: "must be a positive integer"}
	}
	return id, nil
}

// decode binds the JSON body into dest and answers the request itself when
// the body is unusable. It returns false when the handler must stop.
func decode(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	errs, err := bind.JSON(r, dest)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return false
	}
	if len(errs) > 0 {
		response.ValidationError(w, errs)
		return false
	}
	return true
}

// saved answers a repository mutation. Storage failures still return the
// record, with a warning.
func saved(w http.ResponseWriter, status int, data interface{}, err error) {
	if err != nil && !models.IsStorage(err) {
		response.FromError(w, err)
		return
	}
	response.Saved(w, status, data, err)
}

// done answers a mutation with no body of its own.
func done(w http.ResponseWriter, err error) {
	saved(w, http.StatusOK, nil, err)
}
