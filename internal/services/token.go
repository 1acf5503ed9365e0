package services

import (
	"encoding/json"
	"time"

	"golang.org/x/oauth2"
)

// tokenExpirySkew is subtracted from the token lifetime so a token is
// refreshed before it can expire mid-request.
const tokenExpirySkew = 60 * time.Second

// Token is the vendor OAuth2 token pair. It decodes the expires_in attribute
// the token endpoint returns instead of an absolute expiry.
type Token struct {
	oauth2.Token
	Scope string `json:"scope,omitempty"`
}

func (t *Token) UnmarshalJSON(data []byte) error {
	var s struct {
		oauth2.Token
		Scope     string `json:"scope,omitempty"`
		ExpiresIn int64  `json:"expires_in,omitempty"`
	}

	err := json.Unmarshal(data, &s)
	if err == nil {
		t.Token = s.Token
		t.Scope = s.Scope

		if s.Expiry.IsZero() && s.ExpiresIn != 0 {
			t.Expiry = time.Now().Add(time.Second * time.Duration(s.ExpiresIn))
		}
	}

	return err
}

// Expired reports whether the token must not be used for further requests,
// i.e. it expires within the skew window as of now.
func (t *Token) Expired(now time.Time) bool {
	return t.Expiry.Sub(now) < tokenExpirySkew
}
