package reflux

import (
	"testing"

	"github.com/quanterion/reflux/state"
)

func TestResult_Kinds(t *testing.T) {
	tests := []struct {
		name      string
		r         Result
		isNone    bool
		isReplace bool
	}{
		{"zero value", Result{}, true, false},
		{"None", None(), true, false},
		{"Merge with value", Merge(state.Value{"a": 1}), false, false},
		{"Merge nil", Merge(nil), true, false},
		{"Replace with value", Replace(state.Value{"a": 1}), false, true},
		{"Replace nil", Replace(nil), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.IsNone(); got != tt.isNone {
				t.Errorf("IsNone = %v, want %v", got, tt.isNone)
			}
			if got := tt.r.IsReplace(); got != tt.isReplace {
				t.Errorf("IsReplace = %v, want %v", got, tt.isReplace)
			}
		})
	}
}

func TestResult_Value(t *testing.T) {
	v := state.Value{"k": "v"}
	if got := Merge(v); !state.Equal(got.Value(), v) {
		t.Errorf("Merge value = %v", got.Value())
	}
	if got := None().Value(); got != nil {
		t.Errorf("None value = %v, want nil", got)
	}
}
