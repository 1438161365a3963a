package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// ErrorKind классифицирует ошибки сервисов для слоя HTTP
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindNotFound
	KindInvalidArgument
	KindInvalidState
	KindUnauthorized
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindInvalidState:
		return "invalid_state"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "unexpected"
	}
}

// AppError ошибка бизнес-операции с понятным клиенту сообщением
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewNotFound(msg string) *AppError {
	return &AppError{Kind: KindNotFound, Message: msg}
}

func NewInvalidArgument(msg string) *AppError {
	return &AppError{Kind: KindInvalidArgument, Message: msg}
}

func NewInvalidState(msg string) *AppError {
	return &AppError{Kind: KindInvalidState, Message: msg}
}

func NewUnauthorized(msg string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: msg}
}

func NewUnexpected(msg string, err error) *AppError {
	return &AppError{Kind: KindUnexpected, Message: msg, Err: err}
}

// KindOf возвращает вид ошибки; ошибки не из сервисов считаются неожиданными
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnexpected
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// notFoundOr превращает gorm.ErrRecordNotFound в NotFound с сообщением msg
func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewNotFound(msg)
	}
	return NewUnexpected("database error", err)
}

// validationError собирает ошибки validator в одно сообщение
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewInvalidArgument(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email", fe.Field()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "password":
			msgs = append(msgs, fmt.Sprintf("%s must contain an upper case letter, a lower case letter, a digit and one of !@#$%%^&*", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return NewInvalidArgument(strings.Join(msgs, "; "))
}
