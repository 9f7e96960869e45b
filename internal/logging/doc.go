// Package logging provides leveled logging for the picker core.
//
// The level is read once from the DEBUG or LOG_LEVEL environment
// variables; DEBUG=true forces debug output regardless of LOG_LEVEL.
// All functions use printf-style formatting on top of the standard
// library logger.
package logging
