// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package governance

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// TokenSigner issues and verifies signed approval tokens: a human approver
// can hand one of these to a resuming workflow as proof a request was
// decided, without the workflow needing to call back into the gateway.
type TokenSigner struct {
	key jwa.SignatureAlgorithm
	raw interface{}
}

// NewTokenSigner builds a signer using an HMAC shared secret. Larger
// deployments would swap this for an asymmetric key from the same auth JWKS
// used elsewhere in the council (see pkg/auth).
func NewTokenSigner(secret []byte) *TokenSigner {
	return &TokenSigner{key: jwa.HS256, raw: secret}
}

// IssueApprovalToken signs a short-lived token asserting that requestID was
// decided by approver with the given status.
func (s *TokenSigner) IssueApprovalToken(requestID, approver string, status RequestStatus, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	tok, err := jwt.NewBuilder().
		Subject(requestID).
		Claim("approver", approver).
		Claim("status", string(status)).
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(ttl)).
		Build()
	if err != nil {
		return "", fmt.Errorf("governance: building approval token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(s.key, s.raw))
	if err != nil {
		return "", fmt.Errorf("governance: signing approval token: %w", err)
	}
	return string(signed), nil
}

// ApprovalClaim is the decoded content of a verified approval token.
type ApprovalClaim struct {
	RequestID string
	Approver  string
	Status    RequestStatus
}

// VerifyApprovalToken validates a token's signature and expiry and extracts
// its approval claim.
func (s *TokenSigner) VerifyApprovalToken(tokenString string) (*ApprovalClaim, error) {
	tok, err := jwt.Parse([]byte(tokenString), jwt.WithKey(s.key, s.raw), jwt.WithValidate(true))
	if err != nil {
		return nil, fmt.Errorf("governance: invalid approval token: %w", err)
	}

	claim := &ApprovalClaim{RequestID: tok.Subject()}
	if v, ok := tok.Get("approver"); ok {
		if s, ok := v.(string); ok {
			claim.Approver = s
		}
	}
	if v, ok := tok.Get("status"); ok {
		if s, ok := v.(string); ok {
			claim.Status = RequestStatus(s)
		}
	}
	return claim, nil
}
