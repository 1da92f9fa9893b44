package main

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	traj "github.com/rmera/gotraj"
	"github.com/rmera/gotraj/chemjson"
	"github.com/rmera/gotraj/traj/stf"
	v3 "github.com/rmera/gotraj/v3"
)

const testConfig = `
[iterframe]
step = 1
fit = true
ref = 0
fitmask = "@CA,C,N"

[[stage]]
kind = "translate"
vector = [1.0, 1.0, 1.0]

[pmap]
workers = 3
`

// writeInputs writes a 4-residue peptide-like system that only rotates and translates along 8 frames.
func writeInputs(Te *testing.T, dir string) (top, trj, cfg string) {
	names := []string{"N", "CA", "C", "O", "H"}
	var ats []*traj.Atom
	for i := 0; i < 20; i++ {
		ats = append(ats, &traj.Atom{Name: names[i%5], ID: i + 1, MolName: "ALA", MolID: i/5 + 1, Chain: "A"})
	}
	t0, err := traj.NewTopology(ats, nil)
	if err != nil {
		Te.Fatal(err)
	}
	top = filepath.Join(dir, "top.json")
	f, err := os.Create(top)
	if err != nil {
		Te.Fatal(err)
	}
	if err := chemjson.EncodeTopology(t0, nil, f); err != nil {
		Te.Fatal(err)
	}
	f.Close()
	base := v3.Zeros(20)
	for i := 0; i < 20; i++ {
		base.Set(i, 0, 1.4*float64(i))
		base.Set(i, 1, 2*math.Sin(float64(i)))
		base.Set(i, 2, math.Cos(1.7*float64(i)))
	}
	tr := traj.NewEmpty(t0)
	for fr := 0; fr < 8; fr++ {
		c := v3.Zeros(20)
		c.Mul(base, traj.RotatorXYZ(15*float64(fr), 0, 5*float64(fr)))
		for i := 0; i < 20; i++ {
			c.Set(i, 0, c.At(i, 0)+float64(fr))
		}
		if err := tr.Append(c); err != nil {
			Te.Fatal(err)
		}
	}
	trj = filepath.Join(dir, "md.stf")
	if err := stf.Save(trj, tr, nil); err != nil {
		Te.Fatal(err)
	}
	cfg = filepath.Join(dir, "run.toml")
	if err := os.WriteFile(cfg, []byte(testConfig), 0o644); err != nil {
		Te.Fatal(err)
	}
	return top, trj, cfg
}

func TestRun(Te *testing.T) {
	dir := Te.TempDir()
	top, trj, cfg := writeInputs(Te, dir)
	out := filepath.Join(dir, "fitted.stf")
	mean := filepath.Join(dir, "mean.json")
	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", cfg, "-top", top, "-traj", trj, "-out", out, "-mean", mean, "-bins", "4",
		"-plot", filepath.Join(dir, "rmsd.png"), "-rama", filepath.Join(dir, "rama.png")}, &stdout, &stderr)
	if code != 0 {
		Te.Fatalf("exit code %d: %s", code, stderr.String())
	}
	var n int
	var rmean float64
	if _, err := fmt.Sscanf(stdout.String(), "frames %d\nrmsd_mean %f", &n, &rmean); err != nil {
		Te.Fatalf("can't parse the output %q: %v", stdout.String(), err)
	}
	if n != 8 || rmean > 0.05 {
		Te.Errorf("rigid frames should fit onto each other: %d frames, mean RMSD %f", n, rmean)
	}
	if !strings.Contains(stdout.String(), "rmsd_histogram\nNormalized: false, TotalData: 8\n") {
		Te.Errorf("every frame should be in the RMSD histogram: %s", stdout.String())
	}
	fitted, _, err := stf.New(out)
	if err != nil {
		Te.Fatal(err)
	}
	fitted.Close()
	for _, name := range []string{mean, filepath.Join(dir, "rmsd.png"), filepath.Join(dir, "rama.png")} {
		if st, err := os.Stat(name); err != nil || st.Size() == 0 {
			Te.Errorf("missing output %s: %v", name, err)
		}
	}
	m, err := chemjson.ReadTopologyFile(mean)
	if err != nil || m.Len() != 20 {
		Te.Errorf("wrong mean structure file: %v", err)
	}
}

func TestRunErrors(Te *testing.T) {
	dir := Te.TempDir()
	top, trj, cfg := writeInputs(Te, dir)
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-top", top}, &stdout, &stderr); code != 2 {
		Te.Errorf("missing arguments should give exit code 2, got %d", code)
	}
	bad := filepath.Join(dir, "bad.toml")
	os.WriteFile(bad, []byte("[iterframe]\nmask = \"@ZZ\"\n"), 0o644)
	stderr.Reset()
	if code := run([]string{"-config", bad, "-top", top, "-traj", trj}, &stdout, &stderr); code != 1 {
		Te.Errorf("a mask selecting nothing should give exit code 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "@ZZ") {
		Te.Errorf("the error should name the mask: %s", stderr.String())
	}
	if code := run([]string{"-config", cfg, "-top", top, "-traj", filepath.Join(dir, "none.stf")}, &stdout, &stderr); code != 1 {
		Te.Errorf("a missing trajectory should give exit code 1, got %d", code)
	}
}
