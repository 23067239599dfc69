package httpgin

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/kirinyoku/bedslot/internal/domain"
)

var registerOnce sync.Once

// registerValidators adds the "hhmm" tag to gin's validator.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
			_, err := domain.ParseTimeOfDay(fl.Field().String())
			return err == nil
		})
	})
}
