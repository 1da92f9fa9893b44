package traj

import (
	"io"
	"os"
	"strings"

	"github.com/pelletier/go-toml"
)

// Config is the description of a pipeline, as read from a TOML document like:
//
//	[iterframe]
//	start = 0
//	stop = 8      # omit for "until the end"
//	step = 2
//	mask = "@CA"
//	autoimage = true
//	fit = true
//	ref = 0
//	fitmask = ":1-10@CA"
//
//	[[stage]]
//	kind = "translate"
//	vector = [1.0, 0.0, 0.0]
//
//	[pmap]
//	workers = 4
type Config struct {
	Iter   IterConfig    `toml:"iterframe"`
	Stages []StageConfig `toml:"stage"`
	PMap   PMapConfig    `toml:"pmap"`
	//Set to End if the document gives no stop.
	stop int
}

// IterConfig is the [iterframe] table.
type IterConfig struct {
	Start     int    `toml:"start"`
	Stop      int    `toml:"stop"`
	Step      int    `toml:"step"`
	Indices   []int  `toml:"indices"`
	Mask      string `toml:"mask"`
	Autoimage bool   `toml:"autoimage"`
	Copy      bool   `toml:"copy"`
	Fit       bool   `toml:"fit"`
	Ref       int    `toml:"ref"`
	FitMask   string `toml:"fitmask"`
	Mass      bool   `toml:"mass"`
}

// StageConfig is one [[stage]] table. Kind is one of select, autoimage, superpose, translate,
// rotate, scale, center and principal. Only the fields relevant to the kind are used.
type StageConfig struct {
	Kind    string    `toml:"kind"`
	Mask    string    `toml:"mask"`
	Vector  []float64 `toml:"vector"`
	Angles  []float64 `toml:"angles"`
	Factors []float64 `toml:"factors"`
	Target  string    `toml:"target"` //"box" (default) or "origin", for center.
	Mass    bool      `toml:"mass"`
	Anchor  string    `toml:"anchor"`
	Origin  bool      `toml:"origin"`
	Ref     int       `toml:"ref"`
}

// PMapConfig is the [pmap] table.
type PMapConfig struct {
	Workers     int  `toml:"workers"`
	AllowNested bool `toml:"allow_nested"`
}

// ReadConfig parses a TOML configuration.
func ReadConfig(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, newError(ConfigError, "ReadConfig", "%s", err.Error())
	}
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, newError(ConfigError, "ReadConfig", "%s", err.Error())
	}
	c := new(Config)
	if err := tree.Unmarshal(c); err != nil {
		return nil, newError(ConfigError, "ReadConfig", "%s", err.Error())
	}
	c.stop = c.Iter.Stop
	if !tree.Has("iterframe.stop") {
		c.stop = End
	}
	return c, nil
}

// ReadConfigFile parses the TOML configuration in the file name.
func ReadConfigFile(name string) (*Config, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, newError(ConfigError, "ReadConfigFile", "%s", err.Error())
	}
	defer f.Close()
	c, err := ReadConfig(f)
	return c, errDecorate(err, "ReadConfigFile")
}

// IterOptions builds the iterator options described by the configuration.
func (c *Config) IterOptions() (*IterOptions, error) {
	o := DefaultIterOptions()
	ic := c.Iter
	if len(ic.Indices) > 0 {
		o.Frames = IndexList(append([]int(nil), ic.Indices...))
	} else {
		o.Frames = Range{ic.Start, c.stop, ic.Step}
	}
	if ic.Mask != "" {
		o.Mask = Mask(ic.Mask)
	}
	o.Autoimage = ic.Autoimage
	o.Copy = ic.Copy
	if ic.Fit {
		o.Fit = &Superpose{RefIndex: ic.Ref, Mass: ic.Mass}
		if ic.FitMask != "" {
			o.Fit.Mask = Mask(ic.FitMask)
		}
	}
	for i, sc := range c.Stages {
		s, err := sc.Stage()
		if err != nil {
			return nil, newError(ConfigError, "Config.IterOptions", "stage %d: %s", i, err.Error())
		}
		o.Stages = append(o.Stages, s)
	}
	return o, nil
}

// PMapOptions builds the options for PMap described by the configuration.
func (c *Config) PMapOptions() (*PMapOptions, error) {
	iopts, err := c.IterOptions()
	if err != nil {
		return nil, errDecorate(err, "Config.PMapOptions")
	}
	return &PMapOptions{Workers: c.PMap.Workers, Iter: iopts, AllowNested: c.PMap.AllowNested}, nil
}

func optMask(s string) Selector {
	if s == "" {
		return nil
	}
	return Mask(s)
}

func vec3(name string, v []float64, def float64) ([3]float64, error) {
	ret := [3]float64{def, def, def}
	if v == nil {
		return ret, nil
	}
	if len(v) != 3 {
		return ret, newError(ConfigError, "StageConfig.Stage", "%s needs 3 values, got %d", name, len(v))
	}
	copy(ret[:], v)
	return ret, nil
}

// Stage returns the Stage described by S.
func (S StageConfig) Stage() (Stage, error) {
	switch strings.ToLower(S.Kind) {
	case "select", "strip":
		if S.Mask == "" {
			return nil, newError(ConfigError, "StageConfig.Stage", "%s stage without a mask", S.Kind)
		}
		m := S.Mask
		if strings.ToLower(S.Kind) == "strip" {
			m = "!(" + m + ")"
		}
		return Select{Mask: Mask(m)}, nil
	case "autoimage":
		return Autoimage{Anchor: optMask(S.Anchor), Origin: S.Origin}, nil
	case "superpose", "rmsfit":
		return Superpose{RefIndex: S.Ref, Mask: optMask(S.Mask), Mass: S.Mass}, nil
	case "translate":
		v, err := vec3("vector", S.Vector, 0)
		return Translate{Vector: v, Mask: optMask(S.Mask)}, err
	case "rotate":
		v, err := vec3("angles", S.Angles, 0)
		return Rotate{Angles: v, Mask: optMask(S.Mask)}, err
	case "scale":
		v, err := vec3("factors", S.Factors, 1)
		return Scale{Factors: v, Mask: optMask(S.Mask)}, err
	case "center":
		c := Center{Mask: optMask(S.Mask), Mass: S.Mass}
		switch strings.ToLower(S.Target) {
		case "", "box":
		case "origin":
			c.Target = Origin
		default:
			return nil, newError(ConfigError, "StageConfig.Stage", "unknown center target %q", S.Target)
		}
		return c, nil
	case "principal":
		return PrincipalAxes{Mass: S.Mass}, nil
	default:
		return nil, newError(ConfigError, "StageConfig.Stage", "unknown stage kind %q", S.Kind)
	}
}
