// Файл: pkg/customvalidator/validator.go

package customvalidator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidations регистрирует кастомные правила валидации
// в переданном экземпляре валидатора.
func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("asset_type", isAssetType); err != nil {
		return err
	}
	if err := v.RegisterValidation("asset_status", isAssetStatus); err != nil {
		return err
	}
	if err := v.RegisterValidation("email", isGoodEmailFormat); err != nil {
		return err
	}
	return nil
}

var assetTypes = map[string]struct{}{
	"KEY": {}, "IT_DEVICE": {}, "VEHICLE": {}, "RENTAL": {}, "FACILITY": {},
}

var assetStatuses = map[string]struct{}{
	"AVAILABLE": {}, "CHECKED_OUT": {}, "MISSING": {}, "MAINTENANCE": {}, "RETIRED": {},
}

func isAssetType(fl validator.FieldLevel) bool {
	_, ok := assetTypes[fl.Field().String()]
	return ok
}

func isAssetStatus(fl validator.FieldLevel) bool {
	_, ok := assetStatuses[fl.Field().String()]
	return ok
}

func isGoodEmailFormat(fl validator.FieldLevel) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(fl.Field().String())
}
