package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// JWT и токены
	ErrInvalidSigningMethod = fmt.Errorf("неверный метод подписи токена")
	ErrInvalidToken         = fmt.Errorf("недопустимый токен")
	ErrTokenExpired         = fmt.Errorf("срок действия токена истёк")
	ErrTokenNotYetValid     = fmt.Errorf("токен ещё не активен")
	ErrTokenIsNotAccess     = fmt.Errorf("токен не является access-токеном")
	ErrTokenIsNotRefresh    = fmt.Errorf("токен не является refresh-токеном")

	// Авторизация
	ErrEmptyAuthHeader    = fmt.Errorf("заголовок авторизации отсутствует")
	ErrInvalidAuthHeader  = fmt.Errorf("неверный формат заголовка авторизации")
	ErrInvalidCredentials = fmt.Errorf("неверные учётные данные")
	ErrUnauthorized       = fmt.Errorf("неавторизован")
	ErrForbidden          = fmt.Errorf("доступ запрещён")

	// Контекст
	ErrUserIDNotFoundInContext = fmt.Errorf("UserID не найден в контексте запроса")
	ErrOrgIDNotFoundInContext  = fmt.Errorf("OrgID не найден в контексте запроса")

	// Общие
	ErrNotFound      = fmt.Errorf("запись не найдена")
	ErrAssetNotFound = fmt.Errorf("актив не найден")
	ErrAuditNotFound = fmt.Errorf("инвентаризация не найдена")
	ErrUserNotFound  = fmt.Errorf("пользователь не найден")
	ErrBadRequest    = fmt.Errorf("неверный запрос")
)

// InvalidInputError — нарушение валидации входных данных (ValidationError).
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}

// InvalidStateError — операция нарушает предусловие машины состояний,
// например checkout по активу, который уже выдан. Это всегда гонка двух
// операторов, поэтому ошибка должна дойти до UI без изменений.
type InvalidStateError struct {
	AssetID  string
	Current  string
	Expected string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("недопустимое состояние актива %s: ожидалось %s, фактически %s", e.AssetID, e.Expected, e.Current)
}

func NewInvalidStateError(assetID, expected, current string) error {
	return &InvalidStateError{AssetID: assetID, Expected: expected, Current: current}
}

// StoreError — отказ нижележащего хранилища. Первичные записи никогда
// не глотают такую ошибку, она поднимается наверх как есть.
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("ошибка хранилища (%s): %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error { return e.Cause }

func NewStoreError(op string, cause error) error {
	return &StoreError{Op: op, Cause: cause}
}

// HttpError — ошибка с HTTP-статусом для ответа клиенту.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Details map[string]interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, details map[string]interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Details: details}
}

// ToHttpError переводит доменную ошибку в HTTP-ответ.
func ToHttpError(err error) *HttpError {
	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var invalidInput *InvalidInputError
	if errors.As(err, &invalidInput) {
		return NewHttpError(http.StatusBadRequest, invalidInput.Message, err, nil)
	}

	var invalidState *InvalidStateError
	if errors.As(err, &invalidState) {
		return NewHttpError(http.StatusConflict, invalidState.Error(), err, nil)
	}

	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAssetNotFound),
		errors.Is(err, ErrAuditNotFound), errors.Is(err, ErrUserNotFound):
		return NewHttpError(http.StatusNotFound, err.Error(), err, nil)
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrEmptyAuthHeader), errors.Is(err, ErrInvalidAuthHeader),
		errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenIsNotAccess), errors.Is(err, ErrTokenIsNotRefresh):
		return NewHttpError(http.StatusUnauthorized, err.Error(), err, nil)
	case errors.Is(err, ErrForbidden):
		return NewHttpError(http.StatusForbidden, err.Error(), err, nil)
	case errors.Is(err, ErrBadRequest):
		return NewHttpError(http.StatusBadRequest, err.Error(), err, nil)
	}

	return NewHttpError(http.StatusInternalServerError, "внутренняя ошибка сервера", err, nil)
}
