package session

import "testing"

func TestNew_UsesGivenName(t *testing.T) {
	s := New("  ada ", " https://s3.example.com/tally ")
	if got := s.Profile().Username; got != "ada" {
		t.Fatalf("Username = %q, want ada", got)
	}
	if got := s.SignInURL(); got != "https://s3.example.com/tally" {
		t.Fatalf("SignInURL = %q, want trimmed url", got)
	}
}

func TestNew_FallsBackToSystemAccount(t *testing.T) {
	s := New("", "")
	if s.Profile().Username == "" {
		t.Fatalf("Username is empty, want system account or fallback")
	}
	if s.SignInURL() != "" {
		t.Fatalf("SignInURL = %q, want empty", s.SignInURL())
	}
}
