package handlers

import (
	"strconv"

	"betportal/internal/utils"
	apperrors "betportal/pkg/errors"

	"github.com/gin-gonic/gin"
)

// bind decodes the JSON body into dst and runs the struct validators. On
// failure it writes the error response and returns false.
func bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.AppErrorResponse(c, apperrors.Validation("invalid request body: "+err.Error()))
		return false
	}
	if errs := utils.ValidateStruct(dst); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs)
		return false
	}
	return true
}

func int64Param(c *gin.Context, name string) (int64, bool) {
	value, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		utils.AppErrorResponse(c, apperrors.Validation(name+" must be a number"))
		return 0, false
	}
	return value, true
}
