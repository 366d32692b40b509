package token

import "time"

// Purpose tags carried in the "type" claim.
const (
	TypeVerify      = "verify"
	TypeReset       = "reset"
	TypeEmailChange = "verify_new_email"
)

// IssueAccess signs an access token. Any "type" key in claims is dropped so the
// result is always untyped.
func (c *Codec) IssueAccess(claims Claims) (string, time.Time, error) {
	out := claims.clone()
	delete(out, ClaimType)

	exp := c.now().Add(c.accessTTL)
	tok, err := c.Encode(out, exp)
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, exp, nil
}

// IssueVerify signs an email verification token for email.
func (c *Codec) IssueVerify(email string) (string, error) {
	return c.Encode(Claims{ClaimSubject: email, ClaimType: TypeVerify}, c.now().Add(c.verifyTTL))
}

// IssueReset signs a password reset token for email.
func (c *Codec) IssueReset(email string) (string, error) {
	return c.Encode(Claims{ClaimSubject: email, ClaimType: TypeReset}, c.now().Add(c.resetTTL))
}

// IssueTyped signs arbitrary claims tagged with typ, valid for minutes.
func (c *Codec) IssueTyped(claims Claims, typ string, minutes int) (string, error) {
	out := claims.clone()
	out[ClaimType] = typ
	return c.Encode(out, c.now().Add(time.Duration(minutes)*time.Minute))
}

// DecodeTyped decodes raw and requires its "type" claim to equal expected.
func (c *Codec) DecodeTyped(raw, expected string) (Claims, error) {
	claims, err := c.Decode(raw)
	if err != nil {
		return nil, err
	}
	if claims.Type() != expected {
		return nil, ErrWrongType
	}
	return claims, nil
}

// DecodeAccess decodes raw and rejects purpose tokens.
func (c *Codec) DecodeAccess(raw string) (Claims, error) {
	return c.DecodeTyped(raw, "")
}
