package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/webtrio/webfolio/internal/auth"
	"github.com/webtrio/webfolio/internal/email"
	"github.com/webtrio/webfolio/internal/errorz/testerr"
	"github.com/webtrio/webfolio/internal/krypto"
)

func Test_Service_RequestCode(t *testing.T) {
	t.Run("ok, request code", func(t *testing.T) {
		st := newServiceTest(t)

		err := st.svc.RequestCode(context.Background(), "ops@example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(st.emailer.emails) != 1 {
			t.Fatalf("expected 1 email, got %d", len(st.emailer.emails))
		}

		sent := st.emailer.emails[0]
		if sent.to != "ops@example.com" || sent.template != "login-code" {
			t.Errorf("unexpected email: %+v", sent)
		}

		if len(sent.data.Code) != auth.CodeLength {
			t.Errorf("expected %d digit code, got %q", auth.CodeLength, sent.data.Code)
		}
	})

	t.Run("ok, address is normalized", func(t *testing.T) {
		st := newServiceTest(t)

		err := st.svc.RequestCode(context.Background(), "OPS@Example.COM")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(st.emailer.emails) != 1 || st.emailer.emails[0].to != "ops@example.com" {
			t.Errorf("expected email to normalized address, got %+v", st.emailer.emails)
		}
	})

	t.Run("ok, new code replaces outstanding code", func(t *testing.T) {
		st := newServiceTest(t)

		first := st.requestCode(t, "ops@example.com")
		second := st.requestCode(t, "ops@example.com")

		_, err := st.svc.RedeemCode(context.Background(), "ops@example.com", first)
		if !errors.Is(err, auth.ErrInvalidCode) {
			t.Errorf("wanted %v got %v (via errors.Is)", auth.ErrInvalidCode, err)
		}

		_, err = st.svc.RedeemCode(context.Background(), "ops@example.com", second)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("fail, not on allow list", func(t *testing.T) {
		st := newServiceTest(t)

		err := st.svc.RequestCode(context.Background(), "nobody@example.com")
		if !errors.Is(err, auth.ErrNotAllowed) {
			t.Fatalf("wanted %v got %v (via errors.Is)", auth.ErrNotAllowed, err)
		}

		if len(st.emailer.emails) != 0 {
			t.Errorf("expected no emails, got %d", len(st.emailer.emails))
		}
	})

	t.Run("fail, delivery error discards stored code", func(t *testing.T) {
		st := newServiceTest(t)

		sendErr := errors.New("smtp is down")
		st.emailer.dep = &testerr.FailingDep{CallIndex: -1, Err: sendErr, FailAtIndex: 0}

		err := st.svc.RequestCode(context.Background(), "ops@example.com")

		var dErr *auth.DeliveryError
		if !errors.As(err, &dErr) {
			t.Fatalf("wanted DeliveryError, got %v", err)
		}
		if !errors.Is(err, sendErr) {
			t.Fatalf("wanted cause %v, got %v (via errors.Is)", sendErr, err)
		}

		// The emailer recorded the code before failing, it must no
		// longer be redeemable.
		code := st.emailer.emails[len(st.emailer.emails)-1].data.Code
		_, err = st.svc.RedeemCode(context.Background(), "ops@example.com", code)
		if !errors.Is(err, auth.ErrInvalidCode) {
			t.Errorf("wanted %v got %v (via errors.Is)", auth.ErrInvalidCode, err)
		}
	})
}

func Test_Service_RedeemCode(t *testing.T) {
	t.Run("ok, redeem and check session", func(t *testing.T) {
		st := newServiceTest(t)

		code := st.requestCode(t, "ops@example.com")

		sess, err := st.svc.RedeemCode(context.Background(), "ops@example.com", code)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !sess.ExpiresAt.Equal(st.now.Add(auth.DefaultSessionExpiry)) {
			t.Errorf("wanted expiry %v got %v", st.now.Add(auth.DefaultSessionExpiry), sess.ExpiresAt)
		}

		identity, err := st.svc.CheckSession(context.Background(), sess.Token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if identity != "ops@example.com" {
			t.Errorf("wanted ops@example.com got %s", identity)
		}
	})

	t.Run("fail, second redemption of the same code", func(t *testing.T) {
		st := newServiceTest(t)

		code := st.requestCode(t, "ops@example.com")

		_, err := st.svc.RedeemCode(context.Background(), "ops@example.com", code)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err = st.svc.RedeemCode(context.Background(), "ops@example.com", code)
		if !errors.Is(err, auth.ErrInvalidCode) {
			t.Errorf("wanted %v got %v (via errors.Is)", auth.ErrInvalidCode, err)
		}
	})

	t.Run("fail, expired code", func(t *testing.T) {
		st := newServiceTest(t)

		code := st.requestCode(t, "ops@example.com")

		st.advance(auth.DefaultCodeExpiry + time.Second)

		_, err := st.svc.RedeemCode(context.Background(), "ops@example.com", code)
		if !errors.Is(err, auth.ErrInvalidCode) {
			t.Errorf("wanted %v got %v (via errors.Is)", auth.ErrInvalidCode, err)
		}
	})

	t.Run("fail, wrong code", func(t *testing.T) {
		st := newServiceTest(t)

		code := st.requestCode(t, "ops@example.com")

		wrong := auth.Code("000000")
		if wrong == code {
			wrong = auth.Code("000001")
		}

		_, err := st.svc.RedeemCode(context.Background(), "ops@example.com", wrong)
		if !errors.Is(err, auth.ErrInvalidCode) {
			t.Errorf("wanted %v got %v (via errors.Is)", auth.ErrInvalidCode, err)
		}
	})

	t.Run("fail, missing inputs", func(t *testing.T) {
		st := newServiceTest(t)

		_, err := st.svc.RedeemCode(context.Background(), "", "482913")
		if !errors.Is(err, auth.ErrInvalidCode) {
			t.Errorf("wanted %v got %v (via errors.Is)", auth.ErrInvalidCode, err)
		}

		_, err = st.svc.RedeemCode(context.Background(), "ops@example.com", "")
		if !errors.Is(err, auth.ErrInvalidCode) {
			t.Errorf("wanted %v got %v (via errors.Is)", auth.ErrInvalidCode, err)
		}
	})

	t.Run("ok, concurrent redemption succeeds exactly once", func(t *testing.T) {
		st := newServiceTest(t)

		code := st.requestCode(t, "ops@example.com")

		const callers = 8
		results := make(chan error, callers)

		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := st.svc.RedeemCode(context.Background(), "ops@example.com", code)
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		var wins, losses int
		for err := range results {
			switch {
			case err == nil:
				wins++
			case errors.Is(err, auth.ErrInvalidCode):
				losses++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}

		if wins != 1 || losses != callers-1 {
			t.Errorf("wanted 1 win and %d losses, got %d wins and %d losses", callers-1, wins, losses)
		}
	})
}

func Test_Service_CheckSession(t *testing.T) {
	t.Run("fail, unknown token", func(t *testing.T) {
		st := newServiceTest(t)

		_, err := st.svc.CheckSession(context.Background(), mustToken(t))
		if !errors.Is(err, auth.ErrNoSession) {
			t.Errorf("wanted %v got %v (via errors.Is)", auth.ErrNoSession, err)
		}
	})

	t.Run("fail, expired session", func(t *testing.T) {
		st := newServiceTest(t)

		sess := st.login(t, "ops@example.com")

		st.advance(auth.DefaultSessionExpiry + time.Second)

		_, err := st.svc.CheckSession(context.Background(), sess.Token)
		if !errors.Is(err, auth.ErrNoSession) {
			t.Errorf("wanted %v got %v (via errors.Is)", auth.ErrNoSession, err)
		}
	})

	t.Run("fail, after logout", func(t *testing.T) {
		st := newServiceTest(t)

		sess := st.login(t, "ops@example.com")

		err := st.svc.Logout(context.Background(), sess.Token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err = st.svc.CheckSession(context.Background(), sess.Token)
		if !errors.Is(err, auth.ErrNoSession) {
			t.Errorf("wanted %v got %v (via errors.Is)", auth.ErrNoSession, err)
		}
	})
}

func Test_Service_Logout(t *testing.T) {
	t.Run("ok, logout with unknown token", func(t *testing.T) {
		st := newServiceTest(t)

		err := st.svc.Logout(context.Background(), mustToken(t))
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("ok, logout only revokes the given session", func(t *testing.T) {
		st := newServiceTest(t)

		s1 := st.login(t, "ops@example.com")
		s2 := st.login(t, "ops@example.com")

		err := st.svc.Logout(context.Background(), s1.Token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := st.svc.CheckSession(context.Background(), s2.Token); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

// serviceTest wires a Service to in-memory stores and a capturing emailer.
type serviceTest struct {
	svc      *auth.Service
	codes    *auth.MemoryCodeStore
	sessions *auth.MemorySessionStore
	emailer  *testEmailer
	now      time.Time
}

func newServiceTest(t *testing.T) *serviceTest {
	t.Helper()

	st := &serviceTest{
		codes:    auth.NewMemoryCodeStore(),
		sessions: auth.NewMemorySessionStore(),
		emailer:  &testEmailer{},
		now:      time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC),
	}

	allowList := auth.NewAllowList([]email.Address{
		"ops@example.com",
		"Team@Webtrio.dev",
	})

	st.svc = auth.NewService(st.codes, st.sessions, st.emailer, allowList, auth.ServiceConfig{})
	st.svc.NowFunc = func() time.Time {
		return st.now
	}

	return st
}

func (st *serviceTest) advance(d time.Duration) {
	st.now = st.now.Add(d)
}

// requestCode requests a code and returns the value that was emailed.
func (st *serviceTest) requestCode(t *testing.T, addr email.Address) auth.Code {
	t.Helper()

	err := st.svc.RequestCode(context.Background(), addr)
	if err != nil {
		t.Fatalf("failed to request code: %v", err)
	}

	return st.emailer.emails[len(st.emailer.emails)-1].data.Code
}

// login runs the full request and redeem flow.
func (st *serviceTest) login(t *testing.T, addr email.Address) auth.IssuedSession {
	t.Helper()

	code := st.requestCode(t, addr)

	sess, err := st.svc.RedeemCode(context.Background(), addr, code)
	if err != nil {
		t.Fatalf("failed to redeem code: %v", err)
	}

	return sess
}

func mustToken(t *testing.T) krypto.Token {
	t.Helper()

	tok, err := krypto.GenerateToken()
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	return tok
}

type sentEmail struct {
	template string
	to       email.Address
	data     auth.LoginCodeData
}

// testEmailer records every send. When dep is set, sends fail according
// to the failing dep schedule after recording.
type testEmailer struct {
	mu     sync.Mutex
	emails []sentEmail
	dep    *testerr.FailingDep
}

func (e *testEmailer) Send(_ context.Context, template string, to email.Address, data any) error {
	e.mu.Lock()
	e.emails = append(e.emails, sentEmail{
		template: template,
		to:       to,
		data:     data.(auth.LoginCodeData),
	})
	e.mu.Unlock()

	if e.dep == nil {
		return nil
	}

	return testerr.MaybeFailErrFunc(e.dep, func() error { return nil })
}
