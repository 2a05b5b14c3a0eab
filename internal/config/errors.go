package config

import "codeberg.org/mutker/displayctl/internal/errors"

const (
	ErrInvalidStrategy   = errors.ErrorCode("config_invalid_strategy")
	ErrInvalidRateWindow = errors.ErrorCode("config_invalid_rate_window")
)
