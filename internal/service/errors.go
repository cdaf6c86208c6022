package service

import (
	"errors"

	"github.com/payperplay/mcwatch/internal/models"
	"github.com/payperplay/mcwatch/internal/repository"
)

// Validation and state errors surfaced to users
var (
	ErrAlreadyTracked        = repository.ErrAlreadyTracked
	ErrNotTracked            = repository.ErrNotTracked
	ErrInvalidAddress        = models.ErrInvalidAddress
	ErrInvalidPort           = models.ErrInvalidPort
	ErrInvalidServerType     = errors.New("server type must be java or bedrock")
	ErrInvalidChannelID      = errors.New("invalid channel id")
	ErrInvalidLogChannel     = errors.New("log channel must be a numeric channel id")
	ErrInvalidConsolePort    = errors.New("invalid remote console port")
	ErrRemoteConsoleDisabled = errors.New("remote console is not configured")
	ErrInvalidPayload        = errors.New("payload is not a valid webhook message")
)

// Chat platform errors, classified by the platform adapter
var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrForbidden       = errors.New("missing permissions")
)
