package hwconfig

import "codeberg.org/mutker/displayctl/internal/errors"

const (
	ErrReadTable  = errors.ErrorCode("hwconfig_read_table_failed")
	ErrParseTable = errors.ErrorCode("hwconfig_parse_table_failed")
	ErrEmptyTable = errors.ErrorCode("hwconfig_empty_table")
)
