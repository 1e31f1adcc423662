package service

import (
	"context"
	"fmt"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"

	"github.com/mmynk/splitledger/internal/middleware"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateRequest checks a message's validate tags.
func validateRequest(msg any) error {
	if err := validate.Struct(msg); err != nil {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	return nil
}

// requireOwner returns the authenticated member's ID, which is also the
// owner ID of their group document.
func requireOwner(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}
	return userID, nil
}
