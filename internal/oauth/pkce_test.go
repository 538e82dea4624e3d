// ABOUTME: Tests for PKCE challenge verification
// ABOUTME: Uses the RFC 7636 appendix B vector for S256

package oauth

import "testing"

// Verifier and challenge from RFC 7636 appendix B.
const (
	rfcVerifier  = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	rfcChallenge = "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
)

func TestChallengeS256(t *testing.T) {
	if got := ChallengeS256(rfcVerifier); got != rfcChallenge {
		t.Errorf("ChallengeS256 = %q, want %q", got, rfcChallenge)
	}
}

func TestVerifyPKCE(t *testing.T) {
	tests := []struct {
		name      string
		verifier  string
		challenge string
		method    string
		want      bool
	}{
		{"S256 match", rfcVerifier, rfcChallenge, ChallengeMethodS256, true},
		{"S256 wrong verifier", "not-the-verifier", rfcChallenge, ChallengeMethodS256, false},
		{"S256 verifier passed as challenge", rfcVerifier, rfcVerifier, ChallengeMethodS256, false},
		{"plain match", "some-verifier", "some-verifier", ChallengeMethodPlain, true},
		{"plain mismatch", "some-verifier", "other-verifier", ChallengeMethodPlain, false},
		{"unknown method", rfcVerifier, rfcChallenge, "S512", false},
		{"empty method", rfcVerifier, rfcChallenge, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyPKCE(tt.verifier, tt.challenge, tt.method); got != tt.want {
				t.Errorf("VerifyPKCE(%q, %q, %q) = %v, want %v", tt.verifier, tt.challenge, tt.method, got, tt.want)
			}
		})
	}
}

func TestValidChallengeMethod(t *testing.T) {
	for method, want := range map[string]bool{
		"S256":  true,
		"plain": true,
		"s256":  false,
		"":      false,
		"none":  false,
	} {
		if got := ValidChallengeMethod(method); got != want {
			t.Errorf("ValidChallengeMethod(%q) = %v, want %v", method, got, want)
		}
	}
}
