// Command trajfit runs a configurable processing pipeline over a STF trajectory: it images,
// fits and transforms the frames as the TOML configuration says, optionally writes the
// processed trajectory, and reports the RMSD of every processed frame to the first one,
// computed in parallel, with its autocorrelation.
//
// Usage:
//
//	trajfit -config run.toml -top system.json -traj md.stf [-out fitted.stf] [-plot rmsd.png] [-rama rama.png] [-mean mean.json] [-bins 10]
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	traj "github.com/rmera/gotraj"
	"github.com/rmera/gotraj/chemjson"
	"github.com/rmera/gotraj/chemplot"
	"github.com/rmera/gotraj/chemstat"
	"github.com/rmera/gotraj/histo"
	"github.com/rmera/gotraj/traj/stf"
	v3 "github.com/rmera/gotraj/v3"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	config, top, traj string
	out, plot, rama   string
	mean              string
	rmsdMask          string
	maxlag, bins      int
}

func run(args []string, stdout, stderr io.Writer) int {
	logger := log.New(stderr, "trajfit: ", 0)
	fs := flag.NewFlagSet("trajfit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var o options
	fs.StringVar(&o.config, "config", "", "TOML file with the pipeline (required)")
	fs.StringVar(&o.top, "top", "", "JSON topology (required)")
	fs.StringVar(&o.traj, "traj", "", "STF trajectory (required)")
	fs.StringVar(&o.out, "out", "", "write the processed trajectory to this STF file")
	fs.StringVar(&o.plot, "plot", "", "plot the RMSD to this file (png, svg, pdf)")
	fs.StringVar(&o.rama, "rama", "", "Ramachandran plot of the last processed frame, to this file")
	fs.StringVar(&o.mean, "mean", "", "write the mean processed structure, as JSON, to this file")
	fs.StringVar(&o.rmsdMask, "rmsdmask", "", "atoms for the RMSD, all if not given")
	fs.IntVar(&o.maxlag, "maxlag", -1, "largest lag for the RMSD autocorrelation, all if negative")
	fs.IntVar(&o.bins, "bins", 0, "print a histogram of the unfitted RMSD to the first frame, with this many bins")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if o.config == "" || o.top == "" || o.traj == "" {
		fs.Usage()
		return 2
	}
	if err := process(o, stdout, logger); err != nil {
		logger.Print(err)
		return 1
	}
	return 0
}

func process(o options, stdout io.Writer, logger *log.Logger) error {
	cfg, err := traj.ReadConfigFile(o.config)
	if err != nil {
		return err
	}
	popts, err := cfg.PMapOptions()
	if err != nil {
		return err
	}
	top, err := chemjson.ReadTopologyFile(o.top)
	if err != nil {
		return err
	}
	t, err := stf.Load(o.traj, top)
	if err != nil {
		return err
	}
	logger.Printf("read %d frames of %d atoms (%.3f GB)", t.NFrames(), t.NAtoms(), t.EstimatedGB())
	iopts := *popts.Iter
	iopts.Copy = true
	it, err := t.IterFrame(&iopts)
	if err != nil {
		return err
	}
	done, err := traj.FromIterator(it)
	if err != nil {
		return err
	}
	if done.NFrames() == 0 {
		return fmt.Errorf("the configuration selects no frames")
	}
	if o.out != "" {
		if err := stf.Save(o.out, done, map[string]string{"source": o.traj}); err != nil {
			return err
		}
	}
	ref, _ := done.Frame(0)
	var mask traj.Selector
	if o.rmsdMask != "" {
		mask = traj.Mask(o.rmsdMask)
	}
	workers := &traj.PMapOptions{Workers: popts.Workers, AllowNested: popts.AllowNested}
	parts, err := traj.PMap(done, traj.RMSDAnalysis(ref.Copy(), mask), workers)
	if err != nil {
		return err
	}
	rmsd, err := traj.Gather(parts)
	if err != nil {
		return err
	}
	mean, std, err := traj.Summary(rmsd)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "frames %d\nrmsd_mean %.4f\nrmsd_std %.4f\n", len(rmsd), mean, std)
	if len(rmsd) > 2 {
		if corr, err := chemstat.AutoCorr(rmsd, o.maxlag, true); err != nil {
			logger.Printf("no RMSD autocorrelation: %v", err)
		} else {
			fmt.Fprintf(stdout, "rmsd_decay %d\n", chemstat.DecayTime(corr))
		}
	}
	if o.bins > 0 {
		h, err := rmsdHistogram(done, ref, o.bins, workers)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "rmsd_histogram\n%s\n", h)
	}
	if o.plot != "" {
		if err := chemplot.Series([][]float64{rmsd}, nil, "RMSD to the first frame", "RMSD (A)", o.plot); err != nil {
			return err
		}
	}
	if o.rama != "" {
		if err := ramaPlot(done, o.rama); err != nil {
			return err
		}
	}
	if o.mean != "" {
		m, err := traj.MeanStructure(done, workers)
		if err != nil {
			return err
		}
		if err := writeMean(o.mean, done.Topology(), m); err != nil {
			return err
		}
	}
	return nil
}

func writeMean(name string, top *traj.Topology, m *v3.Matrix) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := chemjson.EncodeTopology(top, m, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// rmsdHistogram histograms, in parallel, the RMSD of every frame of t to ref as they are, with
// no superposition.
func rmsdHistogram(t *traj.Trajectory, ref *traj.Frame, bins int, o *traj.PMapOptions) (*histo.Data, error) {
	ref = ref.Copy()
	f := chemstat.RMSDFunc(ref)
	max := 0.0
	err := t.Apply(func(fr *traj.Frame) error {
		r, err := f(fr, nil)
		if r > max {
			max = r
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	//the largest value must fall inside the last bin.
	max = max*1.0001 + 1e-6
	parts, err := traj.PMap(t, histo.Analysis("rmsd histogram", f, histo.Dividers(0, max, bins)), o)
	if err != nil {
		return nil, err
	}
	return histo.Merge(parts)
}

func ramaPlot(t *traj.Trajectory, name string) error {
	sets, err := traj.RamaList(t.Topology(), nil)
	if err != nil {
		return err
	}
	last, err := t.Frame(-1)
	if err != nil {
		return err
	}
	dihedrals, err := traj.RamaCalc(last.Coords, sets)
	if err != nil {
		return err
	}
	return chemplot.RamaPlot(dihedrals, nil, "Ramachandran plot", name)
}
