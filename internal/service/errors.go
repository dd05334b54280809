package service

import (
	"errors"
	"fmt"
)

// Error kinds. Domain failures either wrap one of these or are a
// *ValidationError or *ReferenceError; anything else is a storage failure.
var (
	ErrNotFound           = errors.New("not found")
	ErrNotAuthor          = errors.New("you do not have permission to perform this action")
	ErrConflict           = errors.New("already exists")
	ErrNothingToRemove    = errors.New("nothing to remove")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const (
	msgEmptyTags          = "Ошибка ввода данных: поле тегов не может быть пустым."
	msgRepeatTags         = "Ошибка ввода данных: теги не должны повторяться."
	msgEmptyIngredients   = "Ошибка ввода данных: поле ингредиентов не может быть пустым."
	msgRepeatIngredients  = "Ошибка ввода данных: ингредиенты не должны повторяться."
	msgMinValue           = "Убедитесь, что это значение больше либо равно 1."
	msgMaxValue           = "Убедитесь, что это значение меньше либо равно 32767."
	msgRequired           = "Обязательное поле."
	msgNameTooLong        = "Убедитесь, что это значение содержит не более 256 символов."
	msgSubscribeSelf      = "Нельзя подписаться на самого себя"
	msgUsernameMe         = `Использовать имя "me" запрещено`
	msgAlreadySubscribed  = "Вы уже подписаны на этого пользователя"
	msgAlreadyInCart      = "Рецепт уже добавлен в список покупок"
	msgAlreadyFavorited   = "Рецепт уже добавлен в избранное"
	msgNotSubscribed      = "Вы не подписаны на этого пользователя"
	msgNotInCart          = "Рецепта нет в списке покупок"
	msgNotFavorited       = "Рецепта нет в избранном"
	msgEmailTaken         = "Пользователь с таким email уже существует."
	msgUsernameTaken      = "Пользователь с таким именем уже существует."
	msgRecipeNotFound     = "Рецепт не найден."
	msgUserNotFound       = "Пользователь не найден."
	msgTagNotFound        = "Тег не найден."
	msgIngredientNotFound = "Ингредиент не найден."
	msgWrongPassword      = "Неверный текущий пароль."
)

// ValidationError is a field-scoped input rejection
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ReferenceError reports a tag or ingredient id that does not exist
type ReferenceError struct {
	Field string
	ID    uint
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s: Недопустимый первичный ключ \"%d\" - объект не существует.", e.Field, e.ID)
}

// Message is the user-facing part of the error
func (e *ReferenceError) Message() string {
	return fmt.Sprintf("Недопустимый первичный ключ \"%d\" - объект не существует.", e.ID)
}

// KindError carries a user-facing message and unwraps to one of the error kinds
type KindError struct {
	Kind    error
	Message string
}

func (e *KindError) Error() string {
	return e.Message
}

func (e *KindError) Unwrap() error {
	return e.Kind
}

func kindError(kind error, message string) error {
	return &KindError{Kind: kind, Message: message}
}
