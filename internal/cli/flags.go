package cli

import (
	"io"

	"github.com/spf13/pflag"
)

// GlobalFlags are accepted by every command. They affect how the runtime is
// wired, so cmd/skillcycle reads them before the command tree executes.
type GlobalFlags struct {
	Verbose    bool
	ConfigPath string
	DBPath     string
}

func newGlobalFlagSet(g *GlobalFlags) *pflag.FlagSet {
	fs := pflag.NewFlagSet("skillcycle", pflag.ContinueOnError)
	fs.BoolVarP(&g.Verbose, "verbose", "v", false, "log every endpoint attempt to stderr")
	fs.StringVar(&g.ConfigPath, "config", "", "config file (default $SKILLCYCLE_CONFIG or ~/.skillcycle/config.toml)")
	fs.StringVar(&g.DBPath, "db", "", "conversation database (default $SKILLCYCLE_DB or ~/.skillcycle/skillcycle.db)")
	return fs
}

// ParseGlobalFlags extracts the global flags from args, ignoring everything
// else. Parse errors are left for cobra to report.
func ParseGlobalFlags(args []string) GlobalFlags {
	var g GlobalFlags
	fs := newGlobalFlagSet(&g)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	_ = fs.Parse(args)
	return g
}
