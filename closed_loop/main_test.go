package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"eyesight-ctrl/closed_loop/subaru"
	"eyesight-ctrl/utils"
)

func TestParseBuses(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    map[int]string
		wantErr bool
	}{
		{"defaults", defaultBuses, map[int]string{0: "can0", 2: "can2"}, false},
		{"comma list from env", []string{"0=vcan0, 2=vcan1"}, map[int]string{0: "vcan0", 2: "vcan1"}, false},
		{"missing iface", []string{"0="}, nil, true},
		{"bad index", []string{"x=can0"}, nil, true},
		{"negative index", []string{"-1=can0"}, nil, true},
		{"duplicate", []string{"0=can0", "0=can1"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseBuses(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("bus %d = %q, want %q", k, got[k], v)
				}
			}
		})
	}

	if s := busList(map[int]string{2: "can2", 0: "can0"}); s != "0=can0,2=can2" {
		t.Errorf("busList = %q", s)
	}
}

func TestRunStats(t *testing.T) {
	s := newRunStats()
	s.cycles = 10
	s.sent[frameKey{Name: "ES_LKAS", Bus: subaru.BusPT}] = 5
	s.sent[frameKey{Name: "CruiseControl", Bus: subaru.BusCam}] = 2

	s.recordErrors(errors.Join(
		&subaru.FrameError{Message: "ES_Brake", Err: fmt.Errorf("range")},
		&subaru.FrameError{Message: "ES_LKAS", Err: fmt.Errorf("range")},
		fmt.Errorf("other"),
	))

	if s.totalSent() != 7 {
		t.Errorf("totalSent = %d", s.totalSent())
	}
	if s.errors["ES_Brake"] != 1 || s.errors["ES_LKAS"] != 1 || s.errors["(cycle)"] != 1 {
		t.Errorf("errors %v", s.errors)
	}

	out, err := s.render()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"ES_LKAS", "CruiseControl", "ES_Brake", "Cycles"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestCheckCANMap(t *testing.T) {
	for _, gen := range []subaru.Generation{subaru.Global, subaru.PreGlobal} {
		t.Run(string(gen), func(t *testing.T) {
			cmap, err := utils.LoadCANMap(filepath.Join("..", "config", "can", "subaru_"+string(gen)+".csv"))
			if err != nil {
				t.Fatal(err)
			}
			if err := checkCANMap(cmap, gen); err != nil {
				t.Errorf("shipped database rejected: %v", err)
			}
		})
	}

	noCounter := "direction,frame_id,frame_name,cycle_ms,dlc,signal_name,start_bit,bit_length,endianness,signed,factor,offset,min,max,default,unit,comment\n" +
		"tx,0x164,ES_LKAS,20,8,LKAS_Command,0,13,little,true,1,0,-4096,4095,0,,\n" +
		"both,0x161,ES_CruiseThrottle,20,8,Cruise_Button,40,3,little,false,1,0,0,7,0,,\n"
	cmap, err := utils.ParseCANMap(strings.NewReader(noCounter))
	if err != nil {
		t.Fatal(err)
	}
	if err := checkCANMap(cmap, subaru.PreGlobal); err == nil || !strings.Contains(err.Error(), "Counter") {
		t.Errorf("expected missing counter error, got %v", err)
	}
	if err := checkCANMap(cmap, subaru.Global); err == nil {
		t.Error("expected missing frame error for global messages")
	}
}
