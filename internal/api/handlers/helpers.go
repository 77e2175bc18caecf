package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/social-link-api/internal/service"
	"github.com/maheshrc27/social-link-api/internal/transfer"
)

const (
	KindUnknownProvider        = "unknown_provider"
	KindInvalidProfile         = "invalid_profile"
	KindStateNotFound          = "state_not_found"
	KindStateAlreadyConsumed   = "state_already_consumed"
	KindExchangeFailed         = "exchange_failed"
	KindIdentityLookupFailed   = "identity_lookup_failed"
	KindProfileNotFound        = "profile_not_found"
	KindAccountLinkedElsewhere = "account_linked_elsewhere"
	KindAuthorizationDenied    = "authorization_denied"
	KindBadRequest             = "bad_request"
	KindUnauthorized           = "unauthorized"
	KindNotFound               = "not_found"
	KindInternal               = "internal"
)

type errorMapping struct {
	err     error
	status  int
	kind    string
	message string
}

var errorMappings = []errorMapping{
	{service.ErrUnknownProvider, fiber.StatusBadRequest, KindUnknownProvider, "Unsupported provider"},
	{service.ErrInvalidProfile, fiber.StatusBadRequest, KindInvalidProfile, "Invalid profile id"},
	{service.ErrStateNotFound, fiber.StatusBadRequest, KindStateNotFound, "Linking session not found or expired"},
	{service.ErrStateAlreadyConsumed, fiber.StatusConflict, KindStateAlreadyConsumed, "Linking session already used"},
	{service.ErrAccountLinkedElsewhere, fiber.StatusConflict, KindAccountLinkedElsewhere, "Account is linked to another profile"},
	{service.ErrProfileNotFound, fiber.StatusNotFound, KindProfileNotFound, "Profile not found"},
	{service.ErrExchangeFailed, fiber.StatusBadGateway, KindExchangeFailed, "Provider rejected the authorization"},
	{service.ErrIdentityLookupFailed, fiber.StatusBadGateway, KindIdentityLookupFailed, "Unable to read account from provider"},
}

// classify returns the HTTP status and error kind for err.
func classify(err error) (int, string, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.kind, m.message
		}
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch {
		case fe.Code == fiber.StatusUnauthorized:
			return fe.Code, KindUnauthorized, fe.Message
		case fe.Code == fiber.StatusNotFound:
			return fe.Code, KindNotFound, fe.Message
		case fe.Code < fiber.StatusInternalServerError:
			return fe.Code, KindBadRequest, fe.Message
		}
	}
	return fiber.StatusInternalServerError, KindInternal, "Something went wrong"
}

func writeError(c *fiber.Ctx, err error) error {
	status, kind, message := classify(err)

	var pe *service.ProviderError
	if errors.As(err, &pe) {
		slog.Info("provider call failed",
			"platform", pe.Platform,
			"kind", kind,
			"status", pe.StatusCode,
			"payload", pe.Payload,
			"error", pe.Err,
		)
	} else if status == fiber.StatusInternalServerError {
		slog.Error(err.Error(), "path", c.Path())
	}

	return c.Status(status).JSON(transfer.ErrorResponse{
		Error: transfer.ErrorDetail{Kind: kind, Message: message},
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(transfer.ErrorResponse{
		Error: transfer.ErrorDetail{Kind: KindBadRequest, Message: message},
	})
}

// ErrorHandler is the fiber error handler for errors that escape handlers.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return writeError(c, err)
}

// ErrorKind reports the error kind written for err.
func ErrorKind(err error) string {
	_, kind, _ := classify(err)
	return kind
}

func GetUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("user_id").(string)
	return userID
}

// linker runs a claimed handshake through to an attached account.
type linker struct {
	hs service.HandshakeService
	as service.AttachmentService
}

func (l linker) link(ctx context.Context, in transfer.CompleteInput) (*transfer.CompleteResponse, error) {
	verified, err := l.hs.Complete(ctx, in)
	if err != nil {
		return nil, err
	}

	res, err := l.as.Attach(ctx, verified.ProfileID, verified.Identity)
	if err != nil {
		return nil, err
	}

	return &transfer.CompleteResponse{
		Platform:      res.Account.Platform,
		Username:      res.Account.Username,
		PlatformID:    res.Account.PlatformID,
		ProfileID:     res.Account.ProfileID,
		AccountID:     res.Account.ID,
		AlreadyLinked: res.AlreadyLinked,
	}, nil
}
