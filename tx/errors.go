// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package tx

import "errors"

// Sentinel errors, compared with errors.Is; call sites wrap with
// github.com/pkg/errors for positional context.
var (
	// ErrTruncatedBuffer is returned when a transaction ends mid-field.
	ErrTruncatedBuffer = errors.New("tx: truncated buffer")

	// ErrTransactionVersionError is returned when an overwintered
	// transaction's version_group_id does not match the expected constant
	// for its version, or an unsupported version is seen.
	ErrTransactionVersionError = errors.New("tx: unsupported or mismatched transaction version")

	// ErrSerializationError is returned for malformed field counts/sizes
	// while deserializing.
	ErrSerializationError = errors.New("tx: serialization error")

	// ErrUnknownTxinType is returned when InputScript is asked to assemble
	// a scriptSig for an input whose kind was never recognized.
	ErrUnknownTxinType = errors.New("tx: unknown input script type")

	// ErrNotRecognizedRedeemScript names a p2sh redeem script that does not
	// match the multisig pattern. No function in this package returns it:
	// recognizeInputScript classifies such an input as InputUnknown.
	ErrNotRecognizedRedeemScript = errors.New("tx: redeem script not recognized")

	// ErrSanityCheckFailed is returned when a freshly produced signature
	// fails its own self-verification.
	ErrSanityCheckFailed = errors.New("tx: signature failed self-verification")
)
