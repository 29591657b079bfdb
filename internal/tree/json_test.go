package tree

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/solatis/filtertree/internal/types"
)

func TestTreeJSON_Encode(t *testing.T) {
	tr := Tree{l("A"), or(l("B"), l("C"))}

	got, err := json.Marshal(tr)
	if err != nil {
		t.Fatalf("Marshal() error = %v, want nil", err)
	}
	want := `[{"filter":{"field":"A"}},{"condition":"or","children":[{"filter":{"field":"B"}},{"filter":{"field":"C"}}]}]`
	if string(got) != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}

	empty, err := json.Marshal(Tree{})
	if err != nil || string(empty) != "[]" {
		t.Errorf("Marshal(empty) = %s, %v, want [], nil", empty, err)
	}
}

func TestTreeJSON_Decode(t *testing.T) {
	data := `[
		{"filter": {"field": "status", "operator": "is", "value": "active"}},
		{"condition": "OR", "children": [
			{"filter": {"field": "age", "operator": "is_between", "values": [18, 65]}},
			{"filter": {"field": "vip", "operator": "exists", "disabled": true}}
		]}
	]`

	var got Tree
	if err := json.Unmarshal([]byte(data), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v, want nil", err)
	}

	want := Tree{
		NewLeaf(types.Filter{Field: "status", Operator: "is", Value: "active"}),
		or(
			NewLeaf(types.Filter{Field: "age", Operator: "is_between", Values: []any{18.0, 65.0}}),
			NewLeaf(types.Filter{Field: "vip", Operator: "exists", Disabled: true}),
		),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Unmarshal() mismatch (-want +got):\n%s", diff)
	}
}

func TestTreeJSON_DecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{name: "empty node", data: `[{}]`, wantErr: types.ErrInvalidNode},
		{name: "both shapes", data: `[{"condition":"and","filter":{"field":"A"}}]`, wantErr: types.ErrInvalidNode},
		{name: "bad condition", data: `[{"condition":"xor","children":[]}]`, wantErr: types.ErrInvalidCondition},
		{name: "nested bad node", data: `[{"condition":"or","children":[{"children":[]}]}]`, wantErr: types.ErrInvalidNode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Tree
			if err := json.Unmarshal([]byte(tt.data), &got); !errors.Is(err, tt.wantErr) {
				t.Fatalf("Unmarshal() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	var got Tree
	if err := json.Unmarshal([]byte(`{"not":"a list"}`), &got); err == nil {
		t.Error("Unmarshal(object) error = nil, want error")
	}
}

func TestDecodeTree_Normalizes(t *testing.T) {
	got, err := DecodeTree([]byte(`[{"condition":"or","children":[{"filter":{"field":"A"}}]},{"condition":"and","children":[]}]`))
	if err != nil {
		t.Fatalf("DecodeTree() error = %v, want nil", err)
	}
	if got.String() != "A" {
		t.Errorf("DecodeTree() = %s, want A", got)
	}
}

func TestWire_RoundTrip(t *testing.T) {
	tr := sample()
	got, err := FromWire(ToWire(tr))
	if err != nil {
		t.Fatalf("FromWire() error = %v, want nil", err)
	}
	if diff := cmp.Diff(tr, got); diff != "" {
		t.Errorf("FromWire(ToWire()) mismatch (-want +got):\n%s", diff)
	}
}
