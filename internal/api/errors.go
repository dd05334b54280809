package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/pageza/foodgram/backend/internal/service"
)

const (
	msgNotAuthor          = "У вас недостаточно прав для выполнения данного действия."
	msgInvalidCredentials = "Невозможно войти с предоставленными учетными данными."
	msgMalformedBody      = "Некорректный формат запроса."
	msgNotFound           = "Страница не найдена."
	msgInvalidPage        = "Неправильная страница"
	msgInvalidLink        = "Ссылка недействительна."
)

var registerTagNames sync.Once

// useJSONFieldNames makes validator errors report json field names
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// respondError renders a service error with its status and body
func respondError(c *gin.Context, err error) {
	var (
		validationErr *service.ValidationError
		referenceErr  *service.ReferenceError
		kindErr       *service.KindError
	)

	switch {
	case errors.As(err, &validationErr):
		if validationErr.Field == service.NonFieldErrors {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{service.NonFieldErrors: validationErr.Message})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{validationErr.Field: []string{validationErr.Message}})
	case errors.As(err, &referenceErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{referenceErr.Field: []string{referenceErr.Message()}})
	case errors.Is(err, service.ErrNotAuthor):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": msgNotAuthor})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{msgInvalidCredentials}})
	case errors.As(err, &kindErr):
		switch {
		case errors.Is(err, service.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": kindErr.Message})
		case errors.Is(err, service.ErrConflict):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{service.NonFieldErrors: kindErr.Message})
		case errors.Is(err, service.ErrNothingToRemove):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{service.NonFieldErrors: kindErr.Message})
		default:
			internalError(c, err)
		}
	default:
		internalError(c, err)
	}
}

func internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal Server Error"})
}

// respondBindError renders a request decoding or binding failure
func respondBindError(c *gin.Context, err error) {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": msgMalformedBody})
		return
	}

	body := gin.H{}
	for _, fe := range fieldErrs {
		body[fe.Field()] = []string{bindingMessage(fe)}
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}

func bindingMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Обязательное поле."
	case "email":
		return "Введите правильный адрес электронной почты."
	case "max":
		return fmt.Sprintf("Убедитесь, что это значение содержит не более %s символов.", fe.Param())
	case "min":
		return fmt.Sprintf("Убедитесь, что это значение содержит не менее %s символов.", fe.Param())
	default:
		return "Некорректное значение."
	}
}

func notFound(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": msgNotFound})
}
