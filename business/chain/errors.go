package chain

import (
	"errors"
	"fmt"

	"cosmossdk.io/math"
)

// Set of broadcast stages a transaction can be rejected in.
const (
	StageCheckTx   = "checktx"
	StageDeliverTx = "delivertx"
)

// ConfigurationError represents missing or inconsistent settings.
type ConfigurationError struct {
	Field string
	Err   error
}

// NewConfigurationError constructs a configuration error for the field.
func NewConfigurationError(field string, format string, args ...any) error {
	return &ConfigurationError{Field: field, Err: fmt.Errorf(format, args...)}
}

// Error implements the error interface.
func (ce *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %s", ce.Field, ce.Err)
}

// Unwrap returns the underlying error.
func (ce *ConfigurationError) Unwrap() error {
	return ce.Err
}

// IsConfigurationError checks if an error of type ConfigurationError exists.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// =============================================================================

// KeyUnavailableError means no key material is configured for an account.
type KeyUnavailableError struct {
	Key string
	Err error
}

// Error implements the error interface.
func (ke *KeyUnavailableError) Error() string {
	if ke.Err == nil {
		return fmt.Sprintf("key unavailable for account %q", ke.Key)
	}
	return fmt.Sprintf("key unavailable for account %q: %s", ke.Key, ke.Err)
}

// Unwrap returns the underlying error.
func (ke *KeyUnavailableError) Unwrap() error {
	return ke.Err
}

// IsKeyUnavailableError checks if an error of type KeyUnavailableError exists.
func IsKeyUnavailableError(err error) bool {
	var ke *KeyUnavailableError
	return errors.As(err, &ke)
}

// =============================================================================

// InsufficientFundsError means the preflight check failed. Nothing was
// submitted to the chain.
type InsufficientFundsError struct {
	Address   string
	Denom     string
	Required  math.Int
	Available math.Int
}

// Error implements the error interface.
func (ie *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds for %s: required %s%s, available %s%s",
		ie.Address, ie.Required, ie.Denom, ie.Available, ie.Denom)
}

// IsInsufficientFundsError checks if an error of type InsufficientFundsError exists.
func IsInsufficientFundsError(err error) bool {
	var ie *InsufficientFundsError
	return errors.As(err, &ie)
}

// =============================================================================

// ValidatorNotFoundError means the validator does not exist on the chain.
type ValidatorNotFoundError struct {
	Address string
}

// Error implements the error interface.
func (ve *ValidatorNotFoundError) Error() string {
	return fmt.Sprintf("validator %s not found", ve.Address)
}

// IsValidatorNotFoundError checks if an error of type ValidatorNotFoundError exists.
func IsValidatorNotFoundError(err error) bool {
	var ve *ValidatorNotFoundError
	return errors.As(err, &ve)
}

// =============================================================================

// BroadcastError means the chain rejected a transaction. In the checktx
// stage nothing was included. In the delivertx stage the transaction was
// included in a block with a failure code and the sequence was consumed.
type BroadcastError struct {
	Stage     string
	Hash      string
	Code      uint32
	Codespace string
	RawLog    string
}

// Error implements the error interface.
func (be *BroadcastError) Error() string {
	return fmt.Sprintf("broadcast rejected at %s: code %d (%s): %s", be.Stage, be.Code, be.Codespace, be.RawLog)
}

// IsBroadcastError checks if an error of type BroadcastError exists.
func IsBroadcastError(err error) bool {
	var be *BroadcastError
	return errors.As(err, &be)
}

// GetBroadcastError returns a copy of the BroadcastError pointer.
func GetBroadcastError(err error) *BroadcastError {
	var be *BroadcastError
	if !errors.As(err, &be) {
		return nil
	}
	return be
}

// =============================================================================

// AnalyticsError means the inputs to an estimate are degenerate.
type AnalyticsError struct {
	Validator string
	Reason    string
}

// Error implements the error interface.
func (ae *AnalyticsError) Error() string {
	return fmt.Sprintf("estimating validator %s: %s", ae.Validator, ae.Reason)
}

// IsAnalyticsError checks if an error of type AnalyticsError exists.
func IsAnalyticsError(err error) bool {
	var ae *AnalyticsError
	return errors.As(err, &ae)
}

// =============================================================================

// NetworkError means the chain could not be reached or replied with an
// unexpected failure.
type NetworkError struct {
	Op     string
	URL    string
	Status int
	Err    error
}

// Error implements the error interface.
func (ne *NetworkError) Error() string {
	if ne.Status != 0 {
		return fmt.Sprintf("%s %s: status %d: %s", ne.Op, ne.URL, ne.Status, ne.Err)
	}
	return fmt.Sprintf("%s %s: %s", ne.Op, ne.URL, ne.Err)
}

// Unwrap returns the underlying error.
func (ne *NetworkError) Unwrap() error {
	return ne.Err
}

// IsNetworkError checks if an error of type NetworkError exists.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// =============================================================================

// InvalidRequestError means an operation was malformed. It's raised before
// any network call is made.
type InvalidRequestError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (ie *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid %s: %s", ie.Field, ie.Reason)
}

// IsInvalidRequestError checks if an error of type InvalidRequestError exists.
func IsInvalidRequestError(err error) bool {
	var ie *InvalidRequestError
	return errors.As(err, &ie)
}

// =============================================================================

// OutcomeUnknownError means the chain accepted the transaction but its
// inclusion could not be confirmed. The transaction may still be committed,
// so resubmitting risks executing the operation twice.
type OutcomeUnknownError struct {
	Hash string
	Err  error
}

// Error implements the error interface.
func (oe *OutcomeUnknownError) Error() string {
	return fmt.Sprintf("transaction %s submitted, outcome unknown: %s", oe.Hash, oe.Err)
}

// Unwrap returns the underlying error.
func (oe *OutcomeUnknownError) Unwrap() error {
	return oe.Err
}

// IsOutcomeUnknownError checks if an error of type OutcomeUnknownError exists.
func IsOutcomeUnknownError(err error) bool {
	var oe *OutcomeUnknownError
	return errors.As(err, &oe)
}

// =============================================================================

// Submitted reports whether the error leaves a transaction that may be on
// chain. When false, nothing was written and the operation can be retried.
func Submitted(err error) bool {
	if err == nil {
		return false
	}

	if IsOutcomeUnknownError(err) {
		return true
	}

	if be := GetBroadcastError(err); be != nil {
		return be.Stage == StageDeliverTx
	}

	return false
}
