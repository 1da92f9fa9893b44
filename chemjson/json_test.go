package chemjson

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	traj "github.com/rmera/gotraj"
	v3 "github.com/rmera/gotraj/v3"
)

const water = `{"Atoms": [
 {"Name": "OW", "ID": 1, "MolName": "SOL", "MolID": 1, "Chain": "A", "Symbol": "O"},
 {"Name": "HW1", "ID": 2, "MolName": "SOL", "MolID": 1, "Chain": "A", "Symbol": "H"},
 {"Name": "HW2", "ID": 3, "MolName": "SOL", "MolID": 1, "Chain": "A", "Symbol": "H"},
 {"Name": "NA", "ID": 4, "MolName": "NA", "MolID": 2, "Chain": "A", "Symbol": "Na", "Mass": 23}
],
"Coords": [0, 0, 0, 0.96, 0, 0, -0.24, 0.93, 0, 8, 8, 8]}`

func TestDecodeTopology(Te *testing.T) {
	top, err := DecodeTopology(strings.NewReader(water))
	if err != nil {
		Te.Fatal(err)
	}
	if top.Len() != 4 || top.Atom(3).Mass != 23 || top.Atom(0).Mass != 16 {
		Te.Errorf("wrong topology %v", top)
	}
	if got := fmt.Sprint(top.Molecules()); got != "[[0 1 2] [3]]" {
		Te.Errorf("bonds not guessed: molecules %s", got)
	}
	var b bytes.Buffer
	if err := EncodeTopology(top, nil, &b); err != nil {
		Te.Fatal(err)
	}
	back, err := DecodeTopology(&b)
	if err != nil {
		Te.Fatal(err)
	}
	if fmt.Sprint(back.Bonds) != fmt.Sprint(top.Bonds) || back.Atom(2).Name != "HW2" {
		Te.Errorf("round trip changed the topology: %v", back)
	}
	for _, bad := range []string{`{"Atoms": []}`, `{"Atoms": [{"Name": "C"}], "Bonds": [[0, 3]]}`, `{"Atoms": `} {
		_, err := DecodeTopology(strings.NewReader(bad))
		if _, ok := err.(*Error); !ok {
			Te.Errorf("%s: expected an error, got %v", bad, err)
		}
	}
	if err := EncodeTopology(top, v3.Zeros(2), &b); err == nil {
		Te.Errorf("encoding the wrong number of coordinates should fail")
	}
}

func TestCoordsStream(Te *testing.T) {
	c, _ := v3.NewMatrix([]float64{1, 2, 3, 4, 5, 6.5})
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	top, _ := traj.NewTopology([]*traj.Atom{{Name: "C"}, {Name: "N"}}, nil)
	if err := EncodeAtoms(top, enc); err != nil {
		Te.Fatal(err)
	}
	if err := EncodeCoords(c, enc); err != nil {
		Te.Fatal(err)
	}
	r := bufio.NewReader(&b)
	for i := 0; i < 2; i++ {
		r.ReadBytes('\n')
	}
	got, err := DecodeCoords(r, 2)
	if err != nil {
		Te.Fatal(err)
	}
	if got.At(1, 2) != 6.5 || got.At(0, 0) != 1 {
		Te.Errorf("wrong coordinates %v", got)
	}
	if _, err := DecodeCoords(r, 1); err == nil {
		Te.Errorf("decoding past the end should fail")
	}
}
