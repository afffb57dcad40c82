// Package vmerrors defines the status-coded error model shared across the
// gas, value, data-cache, interpreter and executor packages. Rather than a
// flat set of sentinel errors, every failure that can be observed outside a
// single call carries a StatusCode plus an optional sub-status and message,
// partitioned into a StatusType that the executor uses to decide whether a
// failed transaction is Kept (charged) or Discarded (not charged).
package vmerrors

import "fmt"

// StatusType partitions StatusCode values into the five buckets the
// executor needs to distinguish when assembling a TransactionOutput.
type StatusType int

const (
	// StatusTypeValidation covers failures detected before the script ever
	// runs (bad sequence number, unknown sender, insufficient balance).
	StatusTypeValidation StatusType = iota
	// StatusTypeVerification covers bytecode verifier rejections.
	StatusTypeVerification
	// StatusTypeInvariantViolation covers bugs in the VM itself: conditions
	// that should be unreachable if every other layer holds its invariants.
	StatusTypeInvariantViolation
	// StatusTypeDeserialization covers malformed wire-format input.
	StatusTypeDeserialization
	// StatusTypeExecution covers ordinary runtime failures raised by the
	// script itself (aborts, arithmetic errors, missing resources).
	StatusTypeExecution
)

func (t StatusType) String() string {
	switch t {
	case StatusTypeValidation:
		return "Validation"
	case StatusTypeVerification:
		return "Verification"
	case StatusTypeInvariantViolation:
		return "InvariantViolation"
	case StatusTypeDeserialization:
		return "Deserialization"
	case StatusTypeExecution:
		return "Execution"
	default:
		return "Unknown"
	}
}

// StatusCode enumerates the major status values a VMStatus can carry.
type StatusCode int

const (
	// Executed is not an error: the transaction ran to completion. Kept for
	// symmetry with the original status enum; executor code checks this via
	// Status.Ok rather than comparing StatusCode directly.
	Executed StatusCode = iota

	// Validation-type codes.
	SequenceNumberTooOld
	SequenceNumberTooNew
	InsufficientBalanceForTransactionFee
	TransactionExpired
	SendingAccountDoesNotExist
	RejectedWriteSet
	InvalidWriteSet
	ExceededMaxTransactionSize
	UnknownScript
	UnknownModule
	MaxGasUnitsExceedsMaxGasUnitsBound
	MaxGasUnitsBelowMinTransactionGasUnits
	GasUnitPriceBelowMinBound
	GasUnitPriceAboveMaxBound

	// Verification-type codes.
	IndexOutOfBounds
	RangeOutOfBounds
	InvalidSignatureToken
	InvalidFieldDefReference
	RecursiveStructDefinition
	InvalidResourceField
	DuplicateElement

	// InvariantViolation-type codes.
	UnknownInvariantViolationError
	EmptyValueStack
	PCOverflow
	VerifierInvariantViolation
	UnreachableError
	DanglingReference
	ArithmeticOverflow
	OutOfBoundAccess

	// Execution-type codes.
	OutOfGas
	ResourceDoesNotExist
	ResourceAlreadyExists
	MissingData
	DataFormatError
	InvalidData
	RemoteDataError
	CannotWriteExistingResource
	ValueSerializationError
	ValueDeserializationError
	Aborted
	ArithmeticError
	TypeMismatch
	MissingDependency
	CallStackOverflow
	VMMaxTypeDepthReached

	// Deserialization-type codes.
	Malformed
	BadMagic
	UnknownVersion
	UnknownTransactionType
	UnknownAddressType
)

var statusTypeTable = map[StatusCode]StatusType{
	SequenceNumberTooOld:                    StatusTypeValidation,
	SequenceNumberTooNew:                    StatusTypeValidation,
	InsufficientBalanceForTransactionFee:    StatusTypeValidation,
	TransactionExpired:                      StatusTypeValidation,
	SendingAccountDoesNotExist:              StatusTypeValidation,
	RejectedWriteSet:                        StatusTypeValidation,
	InvalidWriteSet:                         StatusTypeValidation,
	ExceededMaxTransactionSize:               StatusTypeValidation,
	UnknownScript:                           StatusTypeValidation,
	UnknownModule:                           StatusTypeValidation,
	MaxGasUnitsExceedsMaxGasUnitsBound:       StatusTypeValidation,
	MaxGasUnitsBelowMinTransactionGasUnits:   StatusTypeValidation,
	GasUnitPriceBelowMinBound:                StatusTypeValidation,
	GasUnitPriceAboveMaxBound:                StatusTypeValidation,

	IndexOutOfBounds:          StatusTypeVerification,
	RangeOutOfBounds:          StatusTypeVerification,
	InvalidSignatureToken:     StatusTypeVerification,
	InvalidFieldDefReference:  StatusTypeVerification,
	RecursiveStructDefinition: StatusTypeVerification,
	InvalidResourceField:      StatusTypeVerification,
	DuplicateElement:          StatusTypeVerification,

	UnknownInvariantViolationError: StatusTypeInvariantViolation,
	EmptyValueStack:                StatusTypeInvariantViolation,
	PCOverflow:                     StatusTypeInvariantViolation,
	VerifierInvariantViolation:     StatusTypeInvariantViolation,
	UnreachableError:               StatusTypeInvariantViolation,
	DanglingReference:              StatusTypeInvariantViolation,
	ArithmeticOverflow:             StatusTypeInvariantViolation,
	OutOfBoundAccess:               StatusTypeInvariantViolation,

	OutOfGas:                     StatusTypeExecution,
	ResourceDoesNotExist:         StatusTypeExecution,
	ResourceAlreadyExists:        StatusTypeExecution,
	MissingData:                  StatusTypeExecution,
	DataFormatError:              StatusTypeExecution,
	InvalidData:                  StatusTypeExecution,
	RemoteDataError:              StatusTypeExecution,
	CannotWriteExistingResource:  StatusTypeExecution,
	ValueSerializationError:      StatusTypeExecution,
	ValueDeserializationError:    StatusTypeExecution,
	Aborted:                      StatusTypeExecution,
	ArithmeticError:              StatusTypeExecution,
	TypeMismatch:                 StatusTypeExecution,
	MissingDependency:            StatusTypeExecution,
	CallStackOverflow:            StatusTypeExecution,
	VMMaxTypeDepthReached:        StatusTypeExecution,

	Malformed:               StatusTypeDeserialization,
	BadMagic:                StatusTypeDeserialization,
	UnknownVersion:          StatusTypeDeserialization,
	UnknownTransactionType:  StatusTypeDeserialization,
	UnknownAddressType:      StatusTypeDeserialization,
}

// Type reports which StatusType a StatusCode belongs to.
func (c StatusCode) Type() StatusType {
	if t, ok := statusTypeTable[c]; ok {
		return t
	}
	return StatusTypeInvariantViolation
}

// VMStatus is the error type returned from every fallible operation in this
// module. It is deliberately richer than a sentinel error: the executor
// needs the StatusType to decide Kept vs Discard, and diagnostics want the
// optional sub-status and message.
type VMStatus struct {
	Code      StatusCode
	SubStatus *uint64
	Message   string
}

// New constructs a VMStatus carrying only a major status code.
func New(code StatusCode) *VMStatus {
	return &VMStatus{Code: code}
}

// WithSubStatus attaches a numeric sub-status, typically a native-function
// or abort code, and returns the receiver for chaining.
func (s *VMStatus) WithSubStatus(n uint64) *VMStatus {
	s.SubStatus = &n
	return s
}

// WithMessage attaches a human-readable diagnostic message and returns the
// receiver for chaining.
func (s *VMStatus) WithMessage(msg string) *VMStatus {
	s.Message = msg
	return s
}

// Type returns the StatusType of the receiver's Code.
func (s *VMStatus) Type() StatusType {
	return s.Code.Type()
}

// Ok reports whether the receiver represents successful execution.
func (s *VMStatus) Ok() bool {
	return s == nil || s.Code == Executed
}

func (s *VMStatus) Error() string {
	if s == nil {
		return "<nil VMStatus>"
	}
	if s.SubStatus != nil && s.Message != "" {
		return fmt.Sprintf("%s(%d): %s [%d]", s.Type(), s.Code, s.Message, *s.SubStatus)
	}
	if s.SubStatus != nil {
		return fmt.Sprintf("%s(%d) [%d]", s.Type(), s.Code, *s.SubStatus)
	}
	if s.Message != "" {
		return fmt.Sprintf("%s(%d): %s", s.Type(), s.Code, s.Message)
	}
	return fmt.Sprintf("%s(%d)", s.Type(), s.Code)
}

// Unwrap lets errors.Is/As see through a VMStatus when it wraps a cause;
// VMStatus is normally terminal, so this returns nil, but the method is kept
// so callers can use errors.As(err, &vmStatus) uniformly.
func (s *VMStatus) Unwrap() error { return nil }

// Is reports whether target is a *VMStatus with the same Code, enabling
// errors.Is(err, vmerrors.New(vmerrors.OutOfGas)) style checks.
func (s *VMStatus) Is(target error) bool {
	t, ok := target.(*VMStatus)
	if !ok {
		return false
	}
	return s.Code == t.Code
}
