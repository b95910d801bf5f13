package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/urfave/cli"
)

// init mirrors the global flag setup main performs before newApp, so the
// app's -v flag does not collide with the default "version, v" flag.
func init() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}
}

// writeSite writes the footprint fixture into dir and returns its path.
func writeSite(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "site.geojson")
	if err := os.WriteFile(path, []byte(footprintsGeoJSON), 0o666); err != nil {
		t.Fatal(err)
	}
	return path
}

func runApp(args ...string) error {
	return newApp().Run(append([]string{"bipv"}, args...))
}

func TestEstimateCommand(t *testing.T) {
	dir := t.TempDir()
	site := writeSite(t, dir)
	out := filepath.Join(dir, "out")

	err := runApp("estimate",
		"-f", site, "--centre-x", "0", "--centre-y", "0",
		"--depth", "6", "--day", "80", "--start-hour", "10", "--hours", "3",
		"--out", out, "--cache-dir", "", "--heatmap")
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(out, "bipv_80.geojson"))
	if err != nil {
		t.Fatal(err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		t.Fatal(err)
	}
	// Three buildings of one roof and four walls each.
	if len(fc.Features) != 15 {
		t.Errorf("got %d features, want 15", len(fc.Features))
	}
	if _, ok := fc.ExtraMembers["run"].(string); !ok {
		t.Errorf("run member = %v", fc.ExtraMembers["run"])
	}
	for _, name := range []string{"80_0_1.png", "80_2_4.png", "heatmap_80.png"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Error(err)
		}
	}
}

func TestEstimateCommandConfigFile(t *testing.T) {
	dir := t.TempDir()
	site := writeSite(t, dir)
	out := filepath.Join(dir, "out")
	conf := filepath.Join(dir, "bipv.toml")
	toml := "day = 100\nhours = 2\ndepth = 5\ntextures = false\n"
	if err := os.WriteFile(conf, []byte(toml), 0o666); err != nil {
		t.Fatal(err)
	}

	err := runApp("estimate", "--config", conf,
		"-f", site, "--centre-x", "0", "--centre-y", "0",
		"--out", out, "--cache-dir", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(out, "bipv_100.geojson")); err != nil {
		t.Errorf("day from the config file not used: %v", err)
	}
	if matches, _ := filepath.Glob(filepath.Join(out, "*.png")); len(matches) != 0 {
		t.Errorf("textures written despite textures = false: %v", matches)
	}
}

func TestEstimateCommandErrors(t *testing.T) {
	dir := t.TempDir()
	site := writeSite(t, dir)
	for _, test := range []struct {
		name string
		args []string
	}{
		{"no footprints", []string{"estimate", "--out", dir}},
		{"bad depth", []string{"estimate", "-f", site, "--depth", "0"}},
		{"bad color", []string{"estimate", "-f", site, "--free-color", "blue"}},
		{"bad thresholds", []string{"estimate", "-f", site, "--min", "10", "--max", "5"}},
		{"missing weather", []string{"estimate", "-f", site, "-w", filepath.Join(dir, "none.epw")}},
	} {
		t.Run(test.name, func(t *testing.T) {
			if err := runApp(test.args...); err == nil {
				t.Error("no error")
			}
		})
	}
}

func TestOtherCommands(t *testing.T) {
	dir := t.TempDir()
	site := writeSite(t, dir)
	for _, args := range [][]string{
		{"trace", "-f", site, "--centre-x", "0", "--centre-y", "0", "--origin", "5.3,0.5,4.1", "--day", "80", "--start-hour", "12"},
		{"trace", "-f", site, "--centre-x", "0", "--centre-y", "0", "--origin", "50,0.5,50"},
		{"trace", "-f", site, "--centre-x", "0", "--centre-y", "0", "--origin", "50,0.5,50", "--day", "200", "--suncalc"},
		{"bvh", "-f", site, "--centre-x", "0", "--centre-y", "0", "--depth", "4", "--check"},
		{"sunpos", "--day", "80"},
	} {
		if err := runApp(args...); err != nil {
			t.Errorf("%v: %v", args, err)
		}
	}
	if err := runApp("trace", "-f", site, "--origin", "1,2"); err == nil {
		t.Error("two-component origin accepted")
	}
	if err := runApp("sunpos", "--day", "400"); err == nil {
		t.Error("day 400 accepted")
	}
}

func TestParseVec(t *testing.T) {
	v, err := parseVec(" 1, -2.5,3")
	if err != nil {
		t.Fatal(err)
	}
	if v.X != 1 || v.Y != -2.5 || v.Z != 3 {
		t.Errorf("got %v", v)
	}
	if _, err := parseVec("1,x,3"); err == nil {
		t.Error("bad coordinate accepted")
	}
}
