package validator

import (
	"testing"

	"github.com/PKHarsimran/discord-coop-game-deals-bot/internal/models"
)

func TestValidator_ValidateStruct(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		deal    models.Deal
		wantErr bool
	}{
		{
			name: "Valid Deal",
			deal: models.Deal{
				DealID:      "abc123",
				Title:       "Deep Rock Galactic",
				SalePrice:   4.99,
				NormalPrice: 29.99,
				SavingsPct:  83.0,
				BuyURL:      "https://www.cheapshark.com/redirect?dealID=abc123",
			},
			wantErr: false,
		},
		{
			name: "Missing Deal ID",
			deal: models.Deal{
				Title:     "Deep Rock Galactic",
				SalePrice: 4.99,
			},
			wantErr: true,
		},
		{
			name: "Missing Title",
			deal: models.Deal{
				DealID:    "abc123",
				SalePrice: 4.99,
			},
			wantErr: true,
		},
		{
			name: "Non-positive Sale Price",
			deal: models.Deal{
				DealID: "abc123",
				Title:  "Deep Rock Galactic",
			},
			wantErr: true,
		},
		{
			name: "Invalid Buy URL",
			deal: models.Deal{
				DealID:    "abc123",
				Title:     "Deep Rock Galactic",
				SalePrice: 4.99,
				BuyURL:    "not-a-url",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := v.ValidateStruct(tt.deal); (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
