// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

// Package authz admits API requests by admission key and route using Casbin.
//
// Every request carries a key in the X-API-Key header (configurable). The
// Keyring maps the key to a role, operator or inzage, and the Enforcer
// decides whether that role may call the method on the route at the host
// that received the request:
//
//	Request -> Admit(host) -> Handler
//	              |
//	     Keyring (key -> role)
//	     Enforcer (role, host, path, method)
//
// # Model
//
// The Casbin model uses the host as a domain, keyMatch2 for routes and
// regexMatch for methods:
//
//	[request_definition]
//	r = sub, dom, obj, act
//
//	[policy_definition]
//	p = sub, dom, obj, act
//
//	[policy_effect]
//	e = some(where (p.eft == allow))
//
//	[matchers]
//	m = r.sub == p.sub && r.dom == p.dom && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
//
// # Policy
//
// The embedded policy grants the operator role the operator host and the
// inzage role the access host:
//
//	p, operator, operator, /actions/:actionId, ^(GET|PUT|DELETE)$
//	p, inzage, access, /processed-objects/:id, ^GET$
//
// A policy file set through AUTH_POLICY_PATH replaces the embedded policy
// and is reloaded periodically.
//
// # Responses
//
//   - no key: 401
//   - unknown key: 403
//   - key whose role the policy does not allow on the route: 403
//
// Rejections are counted in api_admission_denials_total and written to the log
// by the AuditLogger with the key masked.
//
// # Usage
//
//	enforcer, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
//	if err != nil {
//	    return err
//	}
//	defer enforcer.Close()
//
//	mw := authz.NewMiddleware(enforcer, authz.NewKeyring(cfg.Auth), cfg.Auth.Header, writeProblem, nil)
//	r.Use(mw.Admit(authz.HostOperator))
package authz
