package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func decodeRecords(t *testing.T, out *bytes.Buffer) []stepRecord {
	t.Helper()
	var recs []stepRecord
	sc := bufio.NewScanner(out)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		var rec stepRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("decode %q: %v", sc.Text(), err)
		}
		recs = append(recs, rec)
	}
	return recs
}

// TestIntegration_EarthOccultsRayTowardEarth places Fermi 7000 km along +x
// with the identity attitude and casts one ray toward -x, straight at the
// Earth.
func TestIntegration_EarthOccultsRayTowardEarth(t *testing.T) {
	var stdout, stderr bytes.Buffer
	args := []string{
		"-start", "2021-10-02T12:00:00Z",
		"-position", "7000,0,0",
		"-ra", "180", "-dec", "0",
		"-detectors", "n0,b1",
		"-steps", "2",
		"-tick", "1s",
	}
	if err := run(context.Background(), args, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	recs := decodeRecords(t, &stdout)
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	for i, rec := range recs {
		if rec.Step != i {
			t.Fatalf("step = %d, want %d", rec.Step, i)
		}
		if rec.EarthAngularDeg == nil {
			t.Fatalf("earth angular radius missing")
		}
		if len(rec.Detectors) != 2 || rec.Detectors[0].Detector != "n0" || rec.Detectors[1].Detector != "b1" {
			t.Fatalf("detectors = %+v, want n0 then b1", rec.Detectors)
		}
		n0 := rec.Detectors[0]
		if n0.Rays != 1 {
			t.Fatalf("n0 rays = %d, want 1", n0.Rays)
		}
		if n0.Surfaces["earth surface"] != 1 {
			t.Fatalf("n0 surfaces = %v, want earth surface hit", n0.Surfaces)
		}
	}
	if !recs[1].Time.After(recs[0].Time) {
		t.Fatalf("time did not advance: %v then %v", recs[0].Time, recs[1].Time)
	}
}

func TestIntegration_LocalisationSeedsManyRays(t *testing.T) {
	var stdout, stderr bytes.Buffer
	args := []string{
		"-start", "2021-10-02T12:00:00Z",
		"-ra", "30", "-dec", "10",
		"-sigma", "10",
		"-bands", "18",
		"-detectors", "n5",
		"-workers", "4",
	}
	if err := run(context.Background(), args, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}
	recs := decodeRecords(t, &stdout)
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	if rec := recs[0]; rec.EarthAngularDeg != nil || rec.Detectors[0].Rays < 10 {
		t.Fatalf("record = %+v, want no earth and many rays", rec)
	}
}

func TestRunRejectsUnknownDetector(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-detectors", "n0,zz"}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "zz") {
		t.Fatalf("err = %v, want unknown detector zz", err)
	}
	if stdout.Len() != 0 {
		t.Fatalf("stdout = %q, want empty", stdout.String())
	}
}

func TestParseFlagsValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero steps", []string{"-steps", "0"}},
		{"half TLE", []string{"-tle1", "1 33053U"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			if _, err := parseFlags(tt.args, &stderr); err == nil {
				t.Fatalf("parseFlags(%v) succeeded, want error", tt.args)
			}
		})
	}
}

func TestSceneFromOptionsRejectsBadQuaternion(t *testing.T) {
	if _, err := sceneFromOptions(options{quat: "0,0,0,0"}); err == nil {
		t.Fatalf("zero quaternion accepted")
	}
	if _, err := sceneFromOptions(options{quat: "1,2"}); err == nil {
		t.Fatalf("short quaternion accepted")
	}
}
