package refreshrate

import "codeberg.org/mutker/displayctl/internal/errors"

const (
	// Construction errors. These are fatal: the caller must not run
	// with a half-built engine.
	ErrEmptyModeSet    = errors.ErrorCode("display_empty_mode_set")
	ErrInvalidVsync    = errors.ErrorCode("display_invalid_vsync_period")
	ErrDuplicateMode   = errors.ErrorCode("display_duplicate_mode")
	ErrUnknownBootMode = errors.ErrorCode("display_unknown_boot_mode")

	// Policy errors. Recoverable: the store is left untouched and the
	// caller may retry with corrected bounds.
	ErrPolicyUnknownMode = errors.ErrorCode("display_policy_unknown_mode")
	ErrPolicyBadWindow   = errors.ErrorCode("display_policy_bad_window")
	ErrPolicyOutOfRange  = errors.ErrorCode("display_policy_default_out_of_range")

	// Lookup errors. Recoverable: the caller handed us an id that did
	// not originate from this catalog.
	ErrModeNotFound = errors.ErrorCode("display_mode_not_found")

	// Internal consistency errors. An empty allowed list means the
	// policy invariant was broken by a bug, not by input.
	ErrNoAllowedModes = errors.ErrorCode("display_no_allowed_modes")
)
