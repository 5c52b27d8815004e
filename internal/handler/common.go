// Package handler exposes the lifecycle services over the JSON API.
package handler

import (
	"net/http"

	"kodisha/internal/apperr"
	"kodisha/internal/util"

	"github.com/gin-gonic/gin"
)

// fail maps a service error onto the HTTP status and business code of the
// standard envelope.
func fail(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
	case apperr.KindInvalidTransition:
		util.Error(c, http.StatusConflict, util.CodeInvalidTransition, err.Error())
	case apperr.KindNotFound:
		util.Error(c, http.StatusNotFound, util.CodeNotFound, err.Error())
	case apperr.KindConflict:
		util.Error(c, http.StatusConflict, util.CodeConflict, err.Error())
	default:
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "internal error")
	}
}
