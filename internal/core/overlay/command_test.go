package overlay

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/seckatie/marktube/internal/core"
)

func TestCommandWireFormat(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{"new", NewCommand("abc"), `{"type":"NEW","videoId":"abc"}`},
		{"play", PlayCommand(12.5), `{"type":"PLAY","value":12.5}`},
		{"delete", DeleteCommand(3), `{"type":"DELETE","value":3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.cmd)
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Command
		wantErr bool
	}{
		{"add from page", `{"type":"ADD"}`, Command{Type: CommandAdd}, false},
		{"play", `{"type":"PLAY","value":7.5}`, PlayCommand(7.5), false},
		{"new", `{"type":"NEW","videoId":"xyz"}`, NewCommand("xyz"), false},
		{"new without id", `{"type":"NEW"}`, Command{}, true},
		{"unknown type", `{"type":"NOPE"}`, Command{}, true},
		{"not json", `type=ADD`, Command{}, true},
		{"negative seek", `{"type":"PLAY","value":-1}`, Command{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand([]byte(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCommand(%s) error = %v, wantErr %v", tt.payload, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidCommand) {
				t.Errorf("expected ErrInvalidCommand, got %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestValidateRejectsNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), 1e19, core.MaxTimestamp + 1} {
		if err := DeleteCommand(v).Validate(); err == nil {
			t.Errorf("expected error for value %v", v)
		}
	}
}
