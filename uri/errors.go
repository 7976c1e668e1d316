// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package uri

import "errors"

// Sentinel errors, compared with errors.Is; call sites wrap with
// github.com/pkg/errors for positional context.
var (
	// ErrDuplicateParameter is returned when a query key appears more than
	// once in a zcash: URI.
	ErrDuplicateParameter = errors.New("uri: duplicate query parameter")

	// ErrInvalidURI is returned for a wrong scheme or an address that does
	// not decode under the given network's parameters.
	ErrInvalidURI = errors.New("uri: invalid payment URI")
)
