// Package auth inspects the credentials automation-console sends to its backends.
//
// # Session vs. Token Authentication
//
// The backends accept either a browser-style session (cookie jar plus a CSRF
// header, handled by package api) or a bearer token. Bearer tokens are
// optional and configured with auth.token.
//
// # Bearer Tokens
//
// Two shapes are accepted:
//
//   - Opaque personal access tokens, forwarded as-is.
//   - JWTs, whose "exp" and "sub" claims are read without verifying the
//     signature. An expired JWT is rejected locally with ErrExpiredToken so
//     the user sees a clear message instead of a 401 from the server.
//
// # Usage
//
//	tok, err := auth.ParseBearer(cfg.Auth.Token)
//	if err != nil {
//	    return err
//	}
//	if err := tok.Check(time.Now()); err != nil {
//	    return err
//	}
//	req.Header.Set("Authorization", tok.Header())
package auth
