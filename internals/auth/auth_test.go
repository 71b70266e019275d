package auth_test

import (
	"testing"

	"github.com/scrimspace/scrim-server/internals/apperr"
	"github.com/scrimspace/scrim-server/internals/auth"
	"github.com/scrimspace/scrim-server/internals/testutil"
	"github.com/scrimspace/scrim-server/pkg/kvstore"
)

func newAuth(t *testing.T) *auth.AuthService {
	t.Helper()
	return auth.New(kvstore.NewMemory(), testutil.DB(t), "test-secret")
}

func TestSignUpAndLogin(t *testing.T) {
	svc := newAuth(t)

	err := svc.SignUp(auth.SignUpRequestBody{UserName: "riko", MailID: "riko@example.com", Password: "hunter22"})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}

	token, err := svc.Login(auth.LoginRequestBody{UserName: "riko", Password: "hunter22"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}

	userID, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if !svc.CheckIfTokenIsWhiteListed(userID, token) {
		t.Fatal("expected token to be whitelisted")
	}

	if err := svc.Logout(userID, token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if svc.CheckIfTokenIsWhiteListed(userID, token) {
		t.Fatal("expected token to be revoked")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newAuth(t)

	if err := svc.SignUp(auth.SignUpRequestBody{UserName: "riko", MailID: "riko@example.com", Password: "hunter22"}); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	if _, err := svc.Login(auth.LoginRequestBody{UserName: "riko", Password: "wrong"}); !apperr.IsCheck(err) {
		t.Fatalf("expected check failure for wrong password, got %v", err)
	}
	if _, err := svc.Login(auth.LoginRequestBody{UserName: "nobody", Password: "hunter22"}); !apperr.IsCheck(err) {
		t.Fatalf("expected check failure for unknown user, got %v", err)
	}
}

func TestSignUpValidation(t *testing.T) {
	svc := newAuth(t)

	if err := svc.SignUp(auth.SignUpRequestBody{UserName: "riko", MailID: "r@example.com", Password: "short"}); !apperr.IsRule(err) {
		t.Fatalf("expected rule violation for short password, got %v", err)
	}
	if err := svc.SignUp(auth.SignUpRequestBody{MailID: "r@example.com", Password: "hunter22"}); !apperr.IsRule(err) {
		t.Fatalf("expected rule violation for missing user name, got %v", err)
	}

	if err := svc.SignUp(auth.SignUpRequestBody{UserName: "riko", MailID: "r@example.com", Password: "hunter22"}); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if err := svc.SignUp(auth.SignUpRequestBody{UserName: "other", MailID: "r@example.com", Password: "hunter22"}); !apperr.IsRule(err) {
		t.Fatalf("expected rule violation for duplicate mail, got %v", err)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := newAuth(t)
	other := auth.New(kvstore.NewMemory(), testutil.DB(t), "other-secret")

	token, err := svc.GenerateToken(7)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := other.ValidateToken(token); err == nil {
		t.Fatal("expected validation to fail with a different secret")
	}
}
