package security

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndCompare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash([]byte("Correct-Horse-9"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if err := h.Compare(hash, []byte("Correct-Horse-9")); err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if err := h.Compare(hash, []byte("wrong")); err == nil {
		t.Fatal("Compare with wrong password should fail")
	}
	h.CompareDummy([]byte("anything"))
}

func TestNewHasher_ClampsCost(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, bcrypt.DefaultCost},
		{-3, bcrypt.DefaultCost},
		{2, bcrypt.MinCost},
		{12, 12},
		{99, bcrypt.MaxCost},
	}
	for _, tc := range tests {
		if got := NewHasher(tc.in).Cost; got != tc.want {
			t.Errorf("NewHasher(%d).Cost = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		pw   string
		want error
	}{
		{"Sh0rt!", ErrPasswordTooShort},
		{"alllowercase1!", ErrPasswordWeak},
		{"ALLUPPERCASE1!", ErrPasswordWeak},
		{"NoDigitsHere!!", ErrPasswordWeak},
		{"NoSymbols12345", ErrPasswordWeak},
		{"Aa1!" + strings.Repeat("x", 80), ErrPasswordTooLong},
		{"Valid-Passw0rd", nil},
	}
	for _, tc := range tests {
		if got := ValidatePassword(tc.pw); got != tc.want {
			t.Errorf("ValidatePassword(%q) = %v, want %v", tc.pw, got, tc.want)
		}
	}
}

func TestHashToken(t *testing.T) {
	a := HashToken("token-1")
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64", len(a))
	}
	if a != HashToken("token-1") {
		t.Error("HashToken not deterministic")
	}
	if a == HashToken("token-2") {
		t.Error("different tokens share a hash")
	}
	if !TokenHashEqual("token-1", a) || TokenHashEqual("token-2", a) {
		t.Error("TokenHashEqual mismatch")
	}
}
