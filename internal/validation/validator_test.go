// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

type sample struct {
	Action    string `validate:"required,oneof=OPEN CLOSE"`
	Category  int64  `validate:"gte=0"`
	Timestamp string `validate:"required,logtime"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name       string
		in         sample
		wantFields []string
	}{
		{
			name: "valid",
			in:   sample{Action: "OPEN", Category: 3, Timestamp: "2024-01-02 10:00:00"},
		},
		{
			name:       "unknown action",
			in:         sample{Action: "PEEK", Timestamp: "2024-01-02 10:00:00"},
			wantFields: []string{"Action"},
		},
		{
			name:       "iso timestamp rejected",
			in:         sample{Action: "CLOSE", Timestamp: "2024-01-02T10:00:00Z"},
			wantFields: []string{"Timestamp"},
		},
		{
			name:       "everything wrong",
			in:         sample{Category: -1},
			wantFields: []string{"Action", "Category", "Timestamp"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(&tt.in)
			if len(tt.wantFields) == 0 {
				if verr != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want errors")
			}
			if len(verr.Fields) != len(tt.wantFields) {
				t.Errorf("got %d field errors, want %d: %v", len(verr.Fields), len(tt.wantFields), verr)
			}
			for _, f := range tt.wantFields {
				if !verr.Has(f) {
					t.Errorf("missing error for field %s: %v", f, verr)
				}
			}
		})
	}
}

func TestErrors_Message(t *testing.T) {
	verr := ValidateStruct(&sample{Action: "OPEN", Timestamp: "yesterday"})
	if verr == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(verr.Error(), "Timestamp must use the 2006-01-02 15:04:05 layout") {
		t.Errorf("Error() = %q", verr.Error())
	}

	verr = ValidateStruct(&sample{Action: "NOPE", Timestamp: "2024-01-02 10:00:00"})
	if verr == nil || !strings.Contains(verr.Error(), "Action must be one of: OPEN CLOSE") {
		t.Errorf("Error() = %v", verr)
	}
}
