// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

// Package uri parses zcash: payment URIs and formats satoshi amounts,
// grounded on the teacher's general net/url + explicit-validation parsing
// idiom (no pack repo carries a BIP-21-style URI parser of its own) and on
// util.py's parse_URI/format_satoshis semantics.
package uri

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/zclassic/zlite/chaincfg"
	"github.com/zclassic/zlite/tx"
)

const scheme = "zcash:"

// satoshisPerCoin is the amount query parameter's decimal-coins-to-satoshis
// multiplier (1e8), matching format_satoshis' inverse.
const satoshisPerCoin = 100000000

// Payment is the decoded form of a zcash: URI.
type Payment struct {
	Address           string
	Amount            int64 // satoshis; 0 if the amount key was absent
	Label             string
	Message           string
	Memo              string // mirrors Message, per parse_URI
	PaymentRequestURL string
	Other             map[string]string // unrecognized keys, passed through verbatim
}

// Parse decodes raw as a zcash:<address>?k=v&k=v... URI. A bare address with
// no scheme is accepted as-is (parse_URI's only_address case). Duplicate
// query keys are rejected with ErrDuplicateParameter. The address is
// validated to base58check-decode to a P2PKH or P2SH payload under params.
func Parse(raw string, params *chaincfg.Params) (*Payment, error) {
	body := raw
	if strings.Contains(raw, ":") {
		if !strings.HasPrefix(raw, scheme) {
			return nil, errors.Wrapf(ErrInvalidURI, "unrecognized scheme in %q", raw)
		}
		body = strings.TrimPrefix(raw, scheme)
	}

	addr := body
	var rawQuery string
	if idx := strings.IndexByte(body, '?'); idx >= 0 {
		addr = body[:idx]
		rawQuery = body[idx+1:]
	}
	if addr == "" {
		return nil, errors.Wrapf(ErrInvalidURI, "missing address in %q", raw)
	}
	if !tx.ValidAddress(addr, params.AddressParams()) {
		return nil, errors.Wrapf(ErrInvalidURI, "address %q does not decode under network %q", addr, params.Name)
	}

	p := &Payment{Address: addr, Other: make(map[string]string)}
	if rawQuery == "" {
		return p, nil
	}

	seen := make(map[string]bool)
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(key)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidURI, "bad key encoding in %q", pair)
		}
		value, err = url.QueryUnescape(value)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidURI, "bad value encoding in %q", pair)
		}
		if seen[key] {
			return nil, errors.Wrapf(ErrDuplicateParameter, "key %q", key)
		}
		seen[key] = true

		switch key {
		case "amount":
			amount, err := parseAmount(value)
			if err != nil {
				return nil, errors.Wrapf(ErrInvalidURI, "amount %q: %v", value, err)
			}
			p.Amount = amount
		case "label":
			p.Label = value
		case "message":
			p.Message = value
			p.Memo = value
		case "r":
			p.PaymentRequestURL = value
		default:
			p.Other[key] = value
		}
	}
	return p, nil
}

// parseAmount converts a decimal coin amount ("0.0003") into satoshis,
// walking the string directly rather than through float64 to avoid binary
// rounding on values that are exact in decimal.
func parseAmount(s string) (int64, error) {
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	wholeVal, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, err
	}
	fracVal := int64(0)
	if hasFrac {
		for len(frac) < 8 {
			frac += "0"
		}
		if len(frac) > 8 {
			frac = frac[:8]
		}
		fracVal, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, err
		}
	}
	amount := wholeVal*satoshisPerCoin + fracVal
	if neg {
		amount = -amount
	}
	return amount, nil
}

// FormatSatoshis renders amount (in satoshis) as a fixed 8-decimal coin
// string, matching format_satoshis. When diff is true, a non-negative amount
// (zero included) is prefixed with "+" (a negative amount already carries its
// own "-").
func FormatSatoshis(amount int64, diff bool) string {
	neg := amount < 0
	abs := amount
	if neg {
		abs = -abs
	}
	whole := abs / satoshisPerCoin
	frac := abs % satoshisPerCoin

	sign := ""
	if neg {
		sign = "-"
	} else if diff {
		sign = "+"
	}
	return sign + strconv.FormatInt(whole, 10) + "." + zeroPad8(frac)
}

func zeroPad8(frac int64) string {
	s := strconv.FormatInt(frac, 10)
	for len(s) < 8 {
		s = "0" + s
	}
	return s
}
