package utils

import (
	"context"

	"asset-system/pkg/contextkeys"
	apperrors "asset-system/pkg/errors"
)

func GetUserIDFromCtx(ctx context.Context) (uint64, error) {
	userID, ok := ctx.Value(contextkeys.UserIDKey).(uint64)
	if !ok {
		return 0, apperrors.ErrUserIDNotFoundInContext
	}
	return userID, nil
}

func GetUserNameFromCtx(ctx context.Context) string {
	name, _ := ctx.Value(contextkeys.UserNameKey).(string)
	return name
}

func GetOrgIDFromCtx(ctx context.Context) (string, error) {
	orgID, ok := ctx.Value(contextkeys.OrgIDKey).(string)
	if !ok || orgID == "" {
		return "", apperrors.ErrOrgIDNotFoundInContext
	}
	return orgID, nil
}
