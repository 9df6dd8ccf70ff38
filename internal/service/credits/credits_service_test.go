package credits

import (
	"context"
	"credit-chat/internal/apperrors"
	"credit-chat/internal/repository/db"
	"credit-chat/internal/testutil"
	"errors"
	"testing"
)

func TestGetBalance(t *testing.T) {
	tests := []struct {
		name    string
		account *db.CreditAccount
		err     error
		want    int
		wantErr bool
	}{
		{name: "existing account", account: &db.CreditAccount{UserID: "u1", Credits: 42}, want: 42},
		{name: "no account yet", err: apperrors.ErrNotFound, want: 0},
		{name: "store failure", err: errors.New("connection refused"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB := &testutil.MockDatabase{
				GetAccountFunc: func(ctx context.Context, userID string) (*db.CreditAccount, error) {
					return tt.account, tt.err
				},
			}
			service := NewCreditsService(mockDB, nil)

			got, err := service.GetBalance(context.Background(), "u1")
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetBalance() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Expected balance %d, got %d", tt.want, got)
			}
		})
	}
}

func TestGetBalance_Unauthenticated(t *testing.T) {
	service := NewCreditsService(&testutil.MockDatabase{}, nil)

	if _, err := service.GetBalance(context.Background(), ""); !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Errorf("Expected ErrUnauthenticated, got %v", err)
	}
}

func TestGrant(t *testing.T) {
	var gotAmount int64
	var gotCredits int
	mockDB := &testutil.MockDatabase{
		AddCreditsFunc: func(ctx context.Context, userID string, purchaseAmount int64, creditAmount int) (*db.CreditAccount, error) {
			gotAmount, gotCredits = purchaseAmount, creditAmount
			return &db.CreditAccount{UserID: userID, Credits: 150, Amount: purchaseAmount}, nil
		},
	}
	tracker := &testutil.MockTracker{}
	service := NewCreditsService(mockDB, tracker)

	account, err := service.Grant(context.Background(), "u1", 500, 100, "req-9")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if account.Credits != 150 {
		t.Errorf("Expected balance 150, got %d", account.Credits)
	}
	if gotAmount != 500 || gotCredits != 100 {
		t.Errorf("Expected AddCredits(500, 100), got (%d, %d)", gotAmount, gotCredits)
	}
	if len(tracker.Events) != 1 || tracker.Events[0].Name != "credit_purchase" {
		t.Errorf("Expected a credit_purchase event, got %+v", tracker.Events)
	}
}

func TestGrant_Validation(t *testing.T) {
	tests := []struct {
		name    string
		userID  string
		amount  int64
		credits int
	}{
		{name: "missing user", userID: "", amount: 10, credits: 10},
		{name: "zero amount", userID: "u1", amount: 0, credits: 10},
		{name: "zero credits", userID: "u1", amount: 10, credits: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB := &testutil.MockDatabase{}
			service := NewCreditsService(mockDB, nil)

			_, err := service.Grant(context.Background(), tt.userID, tt.amount, tt.credits, "")

			var validationErr *apperrors.ValidationError
			if !errors.As(err, &validationErr) {
				t.Errorf("Expected ValidationError, got %v", err)
			}
			if mockDB.AddCalls != 0 {
				t.Error("Expected ledger not to be touched")
			}
		})
	}
}
