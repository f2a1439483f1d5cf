package handlers

import (
	"errors"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	domainerrors "farmvet-auth.backend/internal/domain/errors"
	"farmvet-auth.backend/internal/interfaces/http/response"
)

// bindJSON decodes the body into dst and answers 400 itself when that fails
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, bindingError(err))
		return false
	}
	return true
}

// bindingError turns validator failures into field errors keyed by the json name
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domainerrors.BadRequest("Invalid request body.")
	}
	out := &domainerrors.ValidationError{}
	for _, fe := range verrs {
		out.Add(jsonFieldName(fe.Field()), fieldMessage(fe))
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "len":
		return "Ensure this field has exactly " + fe.Param() + " characters."
	default:
		return "Invalid value."
	}
}

// jsonFieldName converts a Go field name such as EmailCode to email_code
func jsonFieldName(field string) string {
	var b strings.Builder
	for i, r := range field {
		if unicode.IsUpper(r) {
			if i > 0 && !unicode.IsUpper(rune(field[i-1])) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
