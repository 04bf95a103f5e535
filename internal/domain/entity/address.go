package entity

import (
	"regexp"
	"strings"
)

// Format predicates for user-supplied strings. These are intentionally
// shape-only checks: they decide how a pasted value is routed, the probes
// decide what it actually is.
var (
	evmAddressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	evmTxHashRe  = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
	base58Re     = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]+$`)
)

const (
	solanaSignatureMinLen = 80
	solanaSignatureMaxLen = 90
)

// IsSolanaAddress reports whether s is shaped like a Solana account address
// (base58, 32 to 44 characters).
func IsSolanaAddress(s string) bool {
	if len(s) < 32 || len(s) > 44 {
		return false
	}
	return base58Re.MatchString(s)
}

// IsEVMAddress reports whether s is shaped like a 0x-prefixed EVM address.
func IsEVMAddress(s string) bool {
	return evmAddressRe.MatchString(s)
}

// IsSolanaSignature reports whether s is shaped like a Solana transaction
// signature: 80 to 90 base58 characters without the hex prefix.
func IsSolanaSignature(s string) bool {
	if strings.HasPrefix(s, "0x") {
		return false
	}
	if len(s) < solanaSignatureMinLen || len(s) > solanaSignatureMaxLen {
		return false
	}
	return base58Re.MatchString(s)
}

// IsEVMTxHash reports whether s is a 0x-prefixed 32-byte transaction hash.
func IsEVMTxHash(s string) bool {
	return evmTxHashRe.MatchString(s)
}

// IsTransactionHash reports whether s is shaped like a transaction hash on
// any supported chain.
func IsTransactionHash(s string) bool {
	return IsEVMTxHash(s) || IsSolanaSignature(s)
}
