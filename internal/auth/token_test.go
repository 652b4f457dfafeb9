package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/complaint-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)
	role := domain.EmployeeRoleAdmin

	token, expiresAt, err := tm.GenerateToken("emp-1", domain.SubjectTypeEmployee, &role)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if expiresAt.IsZero() {
		t.Fatal("expiry not set")
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.SubjectID != "emp-1" {
		t.Errorf("subject id = %s", claims.SubjectID)
	}
	if claims.Subject != domain.SubjectTypeEmployee {
		t.Errorf("subject type = %s", claims.Subject)
	}
	if claims.Role == nil || *claims.Role != domain.EmployeeRoleAdmin {
		t.Errorf("role = %v", claims.Role)
	}
}

func TestTokenCustomerHasNoRole(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)
	token, _, err := tm.GenerateToken("cust-1", domain.SubjectTypeCustomer, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Role != nil {
		t.Errorf("customer token carries role %v", *claims.Role)
	}
}

func TestTokenWrongSecretRejected(t *testing.T) {
	token, _, err := NewTokenManager("secret-a", 60).GenerateToken("cust-1", domain.SubjectTypeCustomer, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewTokenManager("secret-b", 60).ParseToken(token); err == nil {
		t.Fatal("token signed with another secret must not parse")
	}
}

func TestPasswordHashAndCompare(t *testing.T) {
	hashed, err := HashPassword("s3cret", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hashed == "s3cret" {
		t.Fatal("password stored in plaintext")
	}
	if err := ComparePassword(hashed, "s3cret"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := ComparePassword(hashed, "wrong"); err == nil {
		t.Error("wrong password accepted")
	}
}

func TestHashPasswordClampsInvalidCost(t *testing.T) {
	hashed, err := HashPassword("s3cret", -5)
	if err != nil {
		t.Fatalf("out-of-range cost must fall back to the default, got %v", err)
	}
	if err := ComparePassword(hashed, "s3cret"); err != nil {
		t.Errorf("compare after clamped hash: %v", err)
	}
}
