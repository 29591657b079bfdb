package match

import (
	"errors"
	"testing"

	"github.com/solatis/filtertree/internal/types"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name      string
		value     any
		fieldType FieldType
		wantValue any
		wantNull  bool
		wantErr   error
	}{
		{name: "number: string to float64", value: "25", fieldType: FieldTypeNumber, wantValue: 25.0},
		{name: "number: float64 passthrough", value: 42.5, fieldType: FieldTypeNumber, wantValue: 42.5},
		{name: "number: int to float64", value: 100, fieldType: FieldTypeNumber, wantValue: 100.0},
		{name: "number: int64 to float64", value: int64(999), fieldType: FieldTypeNumber, wantValue: 999.0},
		{name: "number: string with whitespace", value: "  42  ", fieldType: FieldTypeNumber, wantValue: 42.0},
		{name: "number: whitespace only", value: "   ", fieldType: FieldTypeNumber, wantErr: types.ErrCoercionFailed},
		{name: "number: not a number", value: "abc", fieldType: FieldTypeNumber, wantErr: types.ErrCoercionFailed},
		{name: "number: boolean rejected", value: true, fieldType: FieldTypeNumber, wantErr: types.ErrCoercionFailed},
		{name: "string: passthrough", value: "hello", fieldType: FieldTypeString, wantValue: "hello"},
		{name: "string: float64", value: 3.5, fieldType: FieldTypeString, wantValue: "3.5"},
		{name: "string: whole float64", value: 200.0, fieldType: FieldTypeString, wantValue: "200"},
		{name: "string: boolean", value: false, fieldType: FieldTypeString, wantValue: "false"},
		{name: "string: object rejected", value: map[string]any{"a": 1.0}, fieldType: FieldTypeString, wantErr: types.ErrCoercionFailed},
		{name: "boolean: passthrough", value: true, fieldType: FieldTypeBoolean, wantValue: true},
		{name: "boolean: string", value: " FALSE ", fieldType: FieldTypeBoolean, wantValue: false},
		{name: "boolean: number rejected", value: 1.0, fieldType: FieldTypeBoolean, wantErr: types.ErrCoercionFailed},
		{name: "any: preserves type", value: 7.0, fieldType: FieldTypeAny, wantValue: 7.0},
		{name: "null", value: nil, fieldType: FieldTypeNumber, wantNull: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.value, tt.fieldType)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Coerce() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Coerce() error = %v, want nil", err)
			}
			if got.IsNull != tt.wantNull {
				t.Errorf("Coerce() IsNull = %v, want %v", got.IsNull, tt.wantNull)
			}
			if !tt.wantNull && got.Value != tt.wantValue {
				t.Errorf("Coerce() Value = %v (%T), want %v (%T)", got.Value, got.Value, tt.wantValue, tt.wantValue)
			}
		})
	}
}

func TestParseFieldType(t *testing.T) {
	for name, want := range map[string]FieldType{
		"":        FieldTypeAny,
		"number":  FieldTypeNumber,
		"string":  FieldTypeString,
		"boolean": FieldTypeBoolean,
	} {
		got, err := ParseFieldType(name)
		if err != nil || got != want {
			t.Errorf("ParseFieldType(%q) = %v, %v, want %v, nil", name, got, err, want)
		}
	}
	if _, err := ParseFieldType("date"); !errors.Is(err, types.ErrInvalidFieldType) {
		t.Errorf("ParseFieldType(date) error = %v, want ErrInvalidFieldType", err)
	}
}
