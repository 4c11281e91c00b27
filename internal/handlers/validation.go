package handlers

import (
	"strconv"
	"sync"

	"github.com/carlos-juma/branch.it-IMY220/internal/models"
	"github.com/carlos-juma/branch.it-IMY220/internal/services"
	"github.com/carlos-juma/branch.it-IMY220/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators installs the domain binding tags on gin's validator.
// It is safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("project_status", func(fl validator.FieldLevel) bool {
			return services.ValidProjectStatus(fl.Field().String())
		})
		_ = v.RegisterValidation("message_kind", func(fl validator.FieldLevel) bool {
			return services.ValidMessageKind(fl.Field().String())
		})
		_ = v.RegisterValidation("privacy", func(fl validator.FieldLevel) bool {
			switch models.Privacy(fl.Field().String()) {
			case models.PrivacyPublic, models.PrivacyPrivate:
				return true
			}
			return false
		})
	})
}

// paramID parses a positive numeric path parameter, answering 400 when it
// is not one.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
