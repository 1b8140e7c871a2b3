package handler

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/psds-microservice/backoffice-service/internal/model"
)

var registerOnce sync.Once

// RegisterValidators adds the enum tags used in request bodies to gin's validator.
// Empty values pass; pair with "required" where the field is mandatory.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("ticketstatus", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || model.TicketStatus(s).Valid()
		})
		_ = v.RegisterValidation("ticketpriority", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || model.TicketPriority(s).Valid()
		})
		_ = v.RegisterValidation("ticketcategory", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || model.TicketCategory(s).Valid()
		})
		_ = v.RegisterValidation("clientstatus", func(fl validator.FieldLevel) bool {
			return model.ClientStatus(fl.Field().String()).Valid()
		})
	})
}
