package utils

import (
	"errors"
	"strings"
	"testing"
)

const testMap = `direction,frame_id,frame_name,cycle_ms,dlc,signal_name,start_bit,bit_length,endianness,signed,factor,offset,min,max,default,unit,comment
tx,0x122,CMD,20,8,Checksum,0,8,little,false,1,0,0,255,0,,
tx,0x122,CMD,20,8,Counter,8,4,little,false,1,0,0,15,0,,
tx,0x122,CMD,20,8,Torque,16,13,little,true,1,0,-4096,4095,0,,
tx,0x122,CMD,20,8,Request,29,1,little,false,1,0,0,1,1,,
rx,0x13a,SPEED,20,4,Speed,0,16,little,false,0.05,0,0,0,0,kph,no declared range
`

func parseTestMap(t *testing.T) *CANMap {
	t.Helper()
	m, err := ParseCANMap(strings.NewReader(testMap))
	if err != nil {
		t.Fatalf("ParseCANMap: %v", err)
	}
	return m
}

func TestEncodeDecodeFrame(t *testing.T) {
	m := parseTestMap(t)

	tests := []struct {
		name   string
		values map[string]float64
		want   map[string]float64
	}{
		{
			name:   "defaults fill missing signals",
			values: map[string]float64{"Counter": 3},
			want:   map[string]float64{"Checksum": 0, "Counter": 3, "Torque": 0, "Request": 1},
		},
		{
			name:   "negative torque",
			values: map[string]float64{"Counter": 15, "Torque": -900, "Request": 0, "Checksum": 0xAB},
			want:   map[string]float64{"Checksum": 0xAB, "Counter": 15, "Torque": -900, "Request": 0},
		},
		{
			name:   "range edges",
			values: map[string]float64{"Torque": 4095},
			want:   map[string]float64{"Torque": 4095},
		},
		{
			name:   "range edges negative",
			values: map[string]float64{"Torque": -4096},
			want:   map[string]float64{"Torque": -4096},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, id, err := m.EncodeFrame("CMD", tt.values)
			if err != nil {
				t.Fatalf("EncodeFrame: %v", err)
			}
			if id != 0x122 || len(payload) != 8 {
				t.Fatalf("id 0x%X len %d", id, len(payload))
			}
			got, err := m.DecodeFrame(id, payload)
			if err != nil {
				t.Fatalf("DecodeFrame: %v", err)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestEncodeFrameLayout(t *testing.T) {
	m := parseTestMap(t)
	payload, _, err := m.EncodeFrame("CMD", map[string]float64{"Checksum": 0x11, "Counter": 0xA, "Torque": -1, "Request": 1})
	if err != nil {
		t.Fatal(err)
	}
	// torque -1 is 13 ones from bit 16, request is bit 29
	want := []byte{0x11, 0x0A, 0xFF, 0x3F, 0, 0, 0, 0}
	for i := range want {
		if payload[i] != want[i] {
			t.Fatalf("payload % X, want % X", payload, want)
		}
	}
}

func TestEncodeFrameRange(t *testing.T) {
	m := parseTestMap(t)

	tests := []struct {
		name   string
		frame  string
		values map[string]float64
		signal string
	}{
		{"above declared max", "CMD", map[string]float64{"Torque": 4096}, "Torque"},
		{"below declared min", "CMD", map[string]float64{"Counter": -1}, "Counter"},
		{"counter overflow", "CMD", map[string]float64{"Counter": 16}, "Counter"},
		{"raw width without declared range", "SPEED", map[string]float64{"Speed": 3277}, "Speed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := m.EncodeFrame(tt.frame, tt.values)
			var rangeErr *EncodingRangeError
			if !errors.As(err, &rangeErr) {
				t.Fatalf("expected EncodingRangeError, got %v", err)
			}
			if rangeErr.Signal != tt.signal || rangeErr.Frame != tt.frame {
				t.Errorf("error on %s.%s, want %s.%s", rangeErr.Frame, rangeErr.Signal, tt.frame, tt.signal)
			}
		})
	}
}

func TestNewCANFrameRoundTrip(t *testing.T) {
	m := parseTestMap(t)
	payload, id, err := m.EncodeFrame("SPEED", map[string]float64{"Speed": 100})
	if err != nil {
		t.Fatal(err)
	}
	f := NewCANFrame(id, payload)
	if f.ID != 0x13a || f.Length != 4 {
		t.Errorf("id 0x%X length %d", f.ID, f.Length)
	}

	name, values, err := m.DecodeEinrideFrame(f)
	if err != nil {
		t.Fatal(err)
	}
	if name != "SPEED" || values["Speed"] != 100 {
		t.Errorf("decoded %s %v", name, values)
	}

	if _, _, err := m.EncodeFrame("NOPE", nil); err == nil {
		t.Error("expected unknown frame error")
	}
}

func TestDecodeFrameShortPayload(t *testing.T) {
	m := parseTestMap(t)
	if _, err := m.DecodeFrame(0x122, []byte{1, 2, 3}); err == nil {
		t.Error("expected DLC error")
	}
	if _, err := m.DecodeFrame(0x999, make([]byte, 8)); err == nil {
		t.Error("expected unknown id error")
	}
}
