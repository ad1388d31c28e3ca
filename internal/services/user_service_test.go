package services

import (
	"testing"

	"aktiva/internal/testutil"
)

func TestCreateUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	t.Run("valid", func(t *testing.T) {
		user, err := svc.CreateUser("Alex@Example.com", "secret123", "Alex", "Tan")
		testutil.AssertNoError(t, err)

		if user.ID == 0 {
			t.Fatal("expected non-zero user ID")
		}
		if user.Email != "alex@example.com" {
			t.Errorf("expected lowercased email, got %s", user.Email)
		}
		if user.Password == "secret123" {
			t.Error("password should be stored hashed")
		}
		if !svc.VerifyPassword(user, "secret123") {
			t.Error("stored hash should verify the original password")
		}
	})

	t.Run("missing_fields", func(t *testing.T) {
		_, err := svc.CreateUser("", "secret123", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("duplicate_email", func(t *testing.T) {
		_, err := svc.CreateUser("dup@example.com", "secret123", "", "")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateUser("DUP@example.com", "secret123", "", "")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})
}

func TestAttemptLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	_, err := svc.CreateUser("login@example.com", "secret123", "", "")
	testutil.AssertNoError(t, err)

	t.Run("valid", func(t *testing.T) {
		user, err := svc.AttemptLogin("login@example.com", "secret123")
		testutil.AssertNoError(t, err)
		if user.LastLoginAt == nil {
			t.Error("expected last login time to be recorded")
		}
	})

	t.Run("wrong_password", func(t *testing.T) {
		_, err := svc.AttemptLogin("login@example.com", "nope")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("unknown_email", func(t *testing.T) {
		_, err := svc.AttemptLogin("nobody@example.com", "secret123")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})
}

func TestGetUserByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	created, err := svc.CreateUser("byid@example.com", "secret123", "", "")
	testutil.AssertNoError(t, err)

	user, err := svc.GetUserByID(created.ID)
	testutil.AssertNoError(t, err)
	if user.Email != "byid@example.com" {
		t.Errorf("unexpected email %s", user.Email)
	}

	_, err = svc.GetUserByID(99999)
	testutil.AssertAppError(t, err, "USER_NOT_FOUND")
}
