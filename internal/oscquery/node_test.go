package oscquery

import (
	"encoding/json"
	"testing"
)

func mustParse(t *testing.T, body string) *Node {
	t.Helper()
	var n Node
	if err := json.Unmarshal([]byte(body), &n); err != nil {
		t.Fatalf("unmarshalling node: %v", err)
	}
	return &n
}

func TestFirstValue(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   any
		wantOK bool
	}{
		{
			name:   "uppercase VALUE array",
			body:   `{"FULL_PATH": "/x", "VALUE": [1]}`,
			want:   float64(1),
			wantOK: true,
		},
		{
			name:   "lowercase value array",
			body:   `{"FULL_PATH": "/x", "value": [0.5]}`,
			want:   0.5,
			wantOK: true,
		},
		{
			name:   "scalar value",
			body:   `{"FULL_PATH": "/x", "VALUE": "on"}`,
			want:   "on",
			wantOK: true,
		},
		{
			name:   "multi-element array yields first",
			body:   `{"FULL_PATH": "/x", "VALUE": [7, 8, 9]}`,
			want:   float64(7),
			wantOK: true,
		},
		{
			name:   "no value field",
			body:   `{"FULL_PATH": "/x"}`,
			wantOK: false,
		},
		{
			name:   "empty array",
			body:   `{"FULL_PATH": "/x", "VALUE": []}`,
			wantOK: false,
		},
		{
			name:   "null value",
			body:   `{"FULL_PATH": "/x", "VALUE": null}`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := mustParse(t, tt.body).FirstValue()
			if ok != tt.wantOK {
				t.Fatalf("FirstValue() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("FirstValue() = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestFind(t *testing.T) {
	root := mustParse(t, `{
		"FULL_PATH": "/",
		"CONTENTS": {
			"a": {"FULL_PATH": "/a", "VALUE": [1]},
			"b": {
				"FULL_PATH": "/b",
				"CONTENTS": {
					"deep": {"FULL_PATH": "/b/deep", "VALUE": [2]}
				}
			},
			"valueless": {"FULL_PATH": "/valueless"}
		}
	}`)

	t.Run("top-level match", func(t *testing.T) {
		v, ok := root.Find("/a")
		if !ok || v != float64(1) {
			t.Errorf("Find(/a) = (%v, %v), want (1, true)", v, ok)
		}
	})

	t.Run("nested match", func(t *testing.T) {
		v, ok := root.Find("/b/deep")
		if !ok || v != float64(2) {
			t.Errorf("Find(/b/deep) = (%v, %v), want (2, true)", v, ok)
		}
	})

	t.Run("missing path", func(t *testing.T) {
		if _, ok := root.Find("/c"); ok {
			t.Error("Find(/c) ok = true, want false")
		}
	})

	t.Run("valueless match counts as not found", func(t *testing.T) {
		if _, ok := root.Find("/valueless"); ok {
			t.Error("Find(/valueless) ok = true, want false")
		}
	})

	t.Run("nil node", func(t *testing.T) {
		var n *Node
		if _, ok := n.Find("/a"); ok {
			t.Error("nil node Find() ok = true, want false")
		}
	})
}
