package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/payroll-sentinel/internal/model"
)

func TestValidateString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid", input: "acme"},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace", input: "   \t", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.input, "param")
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrEmptyString) {
				t.Errorf("Expected ErrEmptyString, got %v", err)
			}
		})
	}
}

func TestValidateContext(t *testing.T) {
	//nolint:staticcheck // exercising the nil guard
	if err := validateContext(nil); !errors.Is(err, ErrNilContext) {
		t.Errorf("Expected ErrNilContext, got %v", err)
	}
	if err := validateContext(context.Background()); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestValidateAlertEntry(t *testing.T) {
	valid := model.AlertHistoryEntry{
		ID:        "a1",
		CompanyID: "acme",
		AlertType: model.AlertLowBalance,
		SentAt:    time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		mutate func(*model.AlertHistoryEntry)
		name   string
		want   error
	}{
		{name: "valid", mutate: func(*model.AlertHistoryEntry) {}},
		{name: "missing id", mutate: func(e *model.AlertHistoryEntry) { e.ID = "" }, want: ErrInvalidAlert},
		{name: "missing company", mutate: func(e *model.AlertHistoryEntry) { e.CompanyID = "" }, want: ErrInvalidAlert},
		{name: "unknown type", mutate: func(e *model.AlertHistoryEntry) { e.AlertType = "overdraft" }, want: ErrInvalidAlert},
		{name: "zero time", mutate: func(e *model.AlertHistoryEntry) { e.SentAt = time.Time{} }, want: ErrInvalidAlert},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			err := validateAlertEntry(&e)
			if tt.want == nil {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	if err := validateAlertEntry(nil); !errors.Is(err, ErrNilParameter) {
		t.Errorf("Expected ErrNilParameter, got %v", err)
	}
}
