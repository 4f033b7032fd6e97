// Package service holds the application use cases: registration and login,
// refresh-token rotation, role administration and cached report reads.
package service

import (
	"errors"

	"go.uber.org/zap"

	"reportdesk/internal/domain"
)

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// fail passes domain errors through and logs anything else once before
// converting it to InternalServerError.
func fail(l *zap.Logger, op string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		if de.Code == domain.CodeInternalServerError && de.Err != nil {
			l.Error(op, zap.Error(de.Err))
		}
		return de
	}
	l.Error(op, zap.Error(err))
	return domain.Internal(err)
}
