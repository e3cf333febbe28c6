package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/tatianab/langquest/internal/vocab"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown           Code = "unknown"
	CodeSessionNotFound   Code = "session_not_found"
	CodeUnknownEntity     Code = "unknown_entity"
	CodeRejectedEffect    Code = "rejected_effect"
	CodeUnknownWord       Code = "unknown_word"
	CodeModuleLocked      Code = "module_locked"
	CodeOracleTimeout     Code = "oracle_timeout"
	CodeOracleUnavailable Code = "oracle_unavailable"
	CodePersistence       Code = "persistence"
	CodeInvalidInput      Code = "invalid_input"
)

// SessionNotFoundError means no save exists for the pair. The player should
// start a new game.
type SessionNotFoundError struct {
	Profile  string
	Language string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("no saved game for %s in %s", e.Profile, e.Language)
}

// UnknownEntityError names a language, module, location, object or NPC that
// the catalog does not have.
type UnknownEntityError struct {
	Kind string
	ID   string
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.ID)
}

// RejectedEffectError explains why a known entity could not change.
type RejectedEffectError struct {
	Effect string
	Reason string
}

func (e *RejectedEffectError) Error() string {
	return fmt.Sprintf("rejected %s: %s", e.Effect, e.Reason)
}

// ModuleLockedError is returned when the player's level is below a module's
// unlock level.
type ModuleLockedError struct {
	Module   string
	Required int
	Level    int
}

func (e *ModuleLockedError) Error() string {
	return fmt.Sprintf("module %q unlocks at level %d (current level %d)", e.Module, e.Required, e.Level)
}

// OracleTimeoutError means the narrator did not answer in time. The turn was
// not saved and can be retried.
type OracleTimeoutError struct {
	Timeout time.Duration
}

func (e *OracleTimeoutError) Error() string {
	return fmt.Sprintf("narrator did not answer within %s", e.Timeout)
}

// OracleUnavailableError wraps any other narrator failure. The turn was not
// saved and can be retried.
type OracleUnavailableError struct {
	Err error
}

func (e *OracleUnavailableError) Error() string {
	return fmt.Sprintf("narrator unavailable: %v", e.Err)
}

func (e *OracleUnavailableError) Unwrap() error { return e.Err }

// PersistenceError means the state could not be read or written. After a
// failed save the turn's effects may be lost.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s game: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// InvalidInputError rejects malformed requests such as empty input.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

// CodeOf returns the code of the first typed error in err's chain.
func CodeOf(err error) Code {
	var (
		notFound    *SessionNotFoundError
		unknown     *UnknownEntityError
		rejected    *RejectedEffectError
		word        *vocab.UnknownWordError
		locked      *ModuleLockedError
		timeout     *OracleTimeoutError
		unavailable *OracleUnavailableError
		persist     *PersistenceError
		invalid     *InvalidInputError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &notFound):
		return CodeSessionNotFound
	case errors.As(err, &unknown):
		return CodeUnknownEntity
	case errors.As(err, &rejected):
		return CodeRejectedEffect
	case errors.As(err, &word):
		return CodeUnknownWord
	case errors.As(err, &locked):
		return CodeModuleLocked
	case errors.As(err, &timeout):
		return CodeOracleTimeout
	case errors.As(err, &unavailable):
		return CodeOracleUnavailable
	case errors.As(err, &persist):
		return CodePersistence
	case errors.As(err, &invalid), errors.Is(err, vocab.ErrInvalidQuality):
		return CodeInvalidInput
	}
	return CodeUnknown
}

// Retryable reports whether the same request may succeed if sent again.
func Retryable(err error) bool {
	switch CodeOf(err) {
	case CodeOracleTimeout, CodeOracleUnavailable:
		return true
	}
	return false
}
