// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package authz

import (
	"context"
	"encoding/hex"

	"golang.org/x/crypto/sha3"

	"github.com/tomtom215/verwerkingenlog/internal/config"
)

// Roles.
const (
	RoleOperator = "operator"
	RoleInzage   = "inzage"
)

// Hosts, the Casbin domain of a request.
const (
	HostOperator = "operator"
	HostAccess   = "access"
)

// Principal is the admitted caller of a request.
type Principal struct {
	Role string
	// KeyID is a stable, non-reversible fingerprint of the admission key.
	KeyID string
}

type keyDigest [32]byte

// Keyring maps admission keys to roles. Keys are held as SHA3-256 digests
// only.
type Keyring struct {
	roles map[keyDigest]string
}

// NewKeyring builds the keyring from the configured key populations. A key
// listed in both populations keeps the operator role; config validation
// rejects that case before this point.
func NewKeyring(cfg config.AuthConfig) *Keyring {
	k := &Keyring{roles: make(map[keyDigest]string, len(cfg.OperatorKeys)+len(cfg.InzageKeys))}
	for _, key := range cfg.InzageKeys {
		k.Add(key, RoleInzage)
	}
	for _, key := range cfg.OperatorKeys {
		k.Add(key, RoleOperator)
	}
	return k
}

// Add registers key with role. Empty keys are ignored.
func (k *Keyring) Add(key, role string) {
	if key == "" {
		return
	}
	k.roles[sha3.Sum256([]byte(key))] = role
}

// Lookup returns the principal for key.
func (k *Keyring) Lookup(key string) (Principal, bool) {
	d := keyDigest(sha3.Sum256([]byte(key)))
	role, ok := k.roles[d]
	if !ok {
		return Principal{}, false
	}
	return Principal{Role: role, KeyID: hex.EncodeToString(d[:8])}, true
}

// Len returns the number of registered keys.
func (k *Keyring) Len() int {
	return len(k.roles)
}

type principalKey struct{}

// ContextWithPrincipal returns ctx carrying p.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the admitted principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
