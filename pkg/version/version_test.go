package version

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    ProtocolVersion
		wantErr bool
	}{
		{in: "1.0", want: ProtocolVersion{Major: 1, Minor: 0}},
		{in: "2.15", want: ProtocolVersion{Major: 2, Minor: 15}},
		{in: "65535.65535", want: ProtocolVersion{Major: 65535, Minor: 65535}},
		{in: "", wantErr: true},
		{in: "1", wantErr: true},
		{in: "1.", wantErr: true},
		{in: ".1", wantErr: true},
		{in: "1.0.0", wantErr: true},
		{in: "a.b", wantErr: true},
		{in: "-1.0", wantErr: true},
		{in: "65536.0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if got.String() != tt.in {
				t.Errorf("String() = %q, want %q", got.String(), tt.in)
			}
		})
	}
}

func TestCurrentParses(t *testing.T) {
	if _, err := Parse(Current); err != nil {
		t.Fatalf("Current %q does not parse: %v", Current, err)
	}
}

func TestCompatible(t *testing.T) {
	v1 := ProtocolVersion{Major: 1, Minor: 0}
	if !v1.Compatible(ProtocolVersion{Major: 1, Minor: 7}) {
		t.Error("1.0 should be compatible with 1.7")
	}
	if v1.Compatible(ProtocolVersion{Major: 2, Minor: 0}) {
		t.Error("1.0 should not be compatible with 2.0")
	}
}

func TestCheck(t *testing.T) {
	if _, err := Check(Current); err != nil {
		t.Errorf("Check(Current): %v", err)
	}

	_, err := Check("99.0")
	if !errors.Is(err, ErrIncompatible) {
		t.Errorf("Check(99.0) = %v, want ErrIncompatible", err)
	}

	if _, err := Check("garbage"); err == nil || errors.Is(err, ErrIncompatible) {
		t.Errorf("Check(garbage) = %v, want parse error", err)
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse did not panic")
		}
	}()
	MustParse("x")
}
