package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/shibukawa/configdir"
	"github.com/spf13/cobra"

	snapcorn "github.com/snapcorn/snapcorn/go"
	"github.com/snapcorn/snapcorn/go/driver"
	"github.com/snapcorn/snapcorn/go/models"
)

const configFile = "config.yaml"

// options holds the persistent flags. Flags given on the command line override the config file.
type options struct {
	config    string
	verbose   bool
	color     bool
	maxSteps  int
	maxLoops  int
	modes     []string
	traceExec bool
	traceMem  bool
	traceReg  bool
	saveDir   string
}

func (o *options) register(root *cobra.Command) {
	fs := root.PersistentFlags()
	fs.StringVar(&o.config, "config", "", "config file (default: "+configFile+" in the user config folder)")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging and stack traces on error")
	fs.BoolVar(&o.color, "color", false, "colored register diffs")
	fs.IntVar(&o.maxSteps, "max-steps", 0, "stop after this many instructions")
	fs.IntVar(&o.maxLoops, "max-loops", 0, "end an explored path after this many turns of one loop")
	fs.StringSliceVar(&o.modes, "mode", nil, "enable an execution mode (repeatable)")
	fs.BoolVar(&o.traceExec, "trace-exec", false, "log every instruction")
	fs.BoolVar(&o.traceMem, "trace-mem", false, "log memory accesses")
	fs.BoolVar(&o.traceReg, "trace-reg", false, "log register writes")
	fs.StringVar(&o.saveDir, "save-dir", "", "write the cpu image of every snapshot here")
}

// findConfig loads config.yaml from the first user or system config folder holding one.
func findConfig() (*models.Config, error) {
	dirs := configdir.New("snapcorn", "")
	if folder := dirs.QueryFolderContainsFile(configFile); folder != nil {
		return models.LoadConfig(filepath.Join(folder.Path, configFile))
	}
	return (&models.Config{}).Init(), nil
}

func (o *options) load(cmd *cobra.Command) (*models.Config, error) {
	var config *models.Config
	var err error
	if o.config != "" {
		config, err = models.LoadConfig(o.config)
	} else {
		config, err = findConfig()
	}
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("verbose") {
		config.Verbose = o.verbose
	}
	if flags.Changed("color") {
		config.Color = o.color
	}
	if flags.Changed("max-steps") {
		config.MaxSteps = o.maxSteps
	}
	if flags.Changed("max-loops") {
		config.MaxLoops = o.maxLoops
	}
	if flags.Changed("trace-exec") {
		config.TraceExec = o.traceExec
	}
	if flags.Changed("trace-mem") {
		config.TraceMem = o.traceMem
	}
	if flags.Changed("trace-reg") {
		config.TraceReg = o.traceReg
	}
	if flags.Changed("save-dir") {
		config.SaveDir = o.saveDir
	}
	config.Modes = append(config.Modes, o.modes...)
	config.Output = cmd.ErrOrStderr()
	return config.Init(), nil
}

// session is a machine set up from a scenario file.
type session struct {
	config   *models.Config
	machine  *snapcorn.Machine
	scenario *driver.Scenario
	program  *driver.Program
	explorer *driver.Explorer
}

func (o *options) open(cmd *cobra.Command, path string) (*session, error) {
	config, err := o.load(cmd)
	if err != nil {
		return nil, err
	}
	s, err := driver.LoadScenario(path)
	if err != nil {
		return nil, err
	}
	m, err := snapcorn.NewMachine(config)
	if err != nil {
		return nil, err
	}
	p, err := s.Setup(m)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	x := driver.NewExplorer(m)
	x.Before = s.Before(m)
	return &session{config: config, machine: m, scenario: s, program: p, explorer: x}, nil
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// PrintError prints err, and in verbose mode the stack trace recorded where it was created.
func PrintError(w io.Writer, err error, verbose bool) {
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 40))
	fmt.Fprintf(w, "Error: %s\n", err)
	// the outermost trace is where err was wrapped, a sentinel's own is its package init
	st, ok := err.(stackTracer)
	if !ok {
		st, ok = errors.Cause(err).(stackTracer)
	}
	if !verbose || !ok {
		return
	}
	// parse full path and method name for each stack frame
	var frames [][]string
	for _, f := range st.StackTrace() {
		fullpath := ""
		fileline := fmt.Sprintf("%s:%d", f, f)
		method := fmt.Sprintf("%n", f)

		frame := fmt.Sprintf("%+s", f)
		tmp := strings.SplitN(frame, "\n", 3)
		if len(tmp) == 2 {
			pathsplit := strings.Split(tmp[0], "/")
			method = pathsplit[len(pathsplit)-1]
			fullpath = strings.TrimSpace(tmp[1])
		}
		frames = append(frames, []string{fullpath, fileline, method})
		if method == "main.main" {
			break
		}
	}
	// calculate column widths
	widths := make([]int, 2)
	for _, f := range frames {
		for i := 0; i < 2; i++ {
			if len(f[i]) > widths[i] {
				widths[i] = len(f[i])
			}
		}
	}
	for _, f := range frames {
		for i := 0; i < 2; i++ {
			if widths[i] > 0 {
				pad := strings.Repeat(" ", widths[i]-len(f[i]))
				fmt.Fprintf(w, "%s%s | ", f[i], pad)
			}
		}
		fmt.Fprintf(w, "%s()\n", f[2])
	}
}
