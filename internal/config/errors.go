package config

import "errors"

// ErrInvalidSetting wraps every validation failure.
var ErrInvalidSetting = errors.New("invalid setting")
