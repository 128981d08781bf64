package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/webtrio/webfolio/internal/auth"
	"github.com/webtrio/webfolio/internal/email"
	"github.com/webtrio/webfolio/internal/krypto"
)

// sessionCookieName is the cookie carrying the session token.
const sessionCookieName = "session"

type ctxKey string

const sessionCtxKey ctxKey = "_session"

// sessionInfo is what the session middleware puts in the context for
// authenticated requests.
type sessionInfo struct {
	token    krypto.Token
	identity email.Address
}

func identityFromContext(ctx context.Context) (email.Address, bool) {
	info, ok := ctx.Value(sessionCtxKey).(sessionInfo)
	if !ok {
		return "", false
	}

	return info.identity, true
}

func tokenFromContext(ctx context.Context) (krypto.Token, bool) {
	info, ok := ctx.Value(sessionCtxKey).(sessionInfo)
	if !ok {
		return krypto.Token{}, false
	}

	return info.token, true
}

// session is a middleware that resolves the session cookie to an
// identity and injects it in the context. Requests without a valid
// session pass through unauthenticated, the route handlers decide
// whether that's acceptable.
func (s *Server) session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		token, err := krypto.ParseToken(cookie.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := s.deps.AuthService.CheckSession(r.Context(), token)
		switch {
		case err == nil:
			ctx := context.WithValue(r.Context(), sessionCtxKey, sessionInfo{
				token:    token,
				identity: identity,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		case errors.Is(err, auth.ErrNoSession):
			next.ServeHTTP(w, r)
		default:
			s.handleError(w, r, err)
		}
	})
}

// adminOnly guards a handler, only authenticated requests get through.
func (s *Server) adminOnly(handler http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := identityFromContext(r.Context()); !ok {
			writeJSON(w, http.StatusUnauthorized, messageJSON{Message: "Unauthorized"})
			return
		}

		handler.ServeHTTP(w, r)
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess auth.IssuedSession) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.Token.String(),
		Path:     "/",
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) sendOTP(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := readJSON(r, &in); err != nil || in.Email == "" {
		writeJSON(w, http.StatusBadRequest, messageJSON{Message: "Email is required"})
		return
	}

	addr, err := email.ParseAddress(in.Email)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, messageJSON{Message: "Email is required"})
		return
	}

	err = s.deps.AuthService.RequestCode(r.Context(), addr)
	switch {
	case errors.Is(err, auth.ErrNotAllowed):
		writeJSON(w, http.StatusForbidden, messageJSON{Message: "This email is not authorized to receive OTP"})
	case err != nil:
		s.deps.Logger.Error("failed to send login code", "url", r.URL.String(), "error", err)
		writeJSON(w, http.StatusInternalServerError, messageJSON{Message: "Failed to send OTP"})
	default:
		writeJSON(w, http.StatusOK, messageJSON{Message: "OTP sent successfully"})
	}
}

func (s *Server) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := readJSON(r, &in); err != nil || in.Email == "" || in.OTP == "" {
		writeJSON(w, http.StatusBadRequest, messageJSON{Message: "Email and OTP are required"})
		return
	}

	addr, err := email.ParseAddress(in.Email)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, messageJSON{Message: "Invalid OTP"})
		return
	}

	code, err := auth.ParseCode(in.OTP)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, messageJSON{Message: "Invalid OTP"})
		return
	}

	sess, err := s.deps.AuthService.RedeemCode(r.Context(), addr, code)
	switch {
	case errors.Is(err, auth.ErrInvalidCode):
		writeJSON(w, http.StatusUnauthorized, messageJSON{Message: "Invalid OTP"})
	case err != nil:
		s.deps.Logger.Error("failed to redeem login code", "url", r.URL.String(), "error", err)
		writeJSON(w, http.StatusInternalServerError, messageJSON{Message: "Login failed"})
	default:
		s.setSessionCookie(w, sess)
		writeJSON(w, http.StatusOK, messageJSON{Message: "Login successful"})
	}
}

func (s *Server) checkAuth(w http.ResponseWriter, r *http.Request) {
	if _, ok := identityFromContext(r.Context()); !ok {
		writeJSON(w, http.StatusUnauthorized, messageJSON{Message: "Unauthorized"})
		return
	}

	writeJSON(w, http.StatusOK, messageJSON{Message: "Authenticated"})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := tokenFromContext(r.Context()); ok {
		if err := s.deps.AuthService.Logout(r.Context(), token); err != nil {
			s.deps.Logger.Error("failed to revoke session", "url", r.URL.String(), "error", err)
			writeJSON(w, http.StatusInternalServerError, messageJSON{Message: "Logout failed"})
			return
		}
	}

	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, messageJSON{Message: "Logged out successfully"})
}
