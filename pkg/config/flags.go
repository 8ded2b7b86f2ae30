package config

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"
)

type parsedFlags struct {
	source     *FlagSource
	flags      *pflag.FlagSet
	configFile string
	help       bool
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("tracefwd", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.String(FlagEndpoint, "", HelpEndpoint)
	fs.String(FlagSourceName, "", HelpSourceName)
	fs.String(FlagProviderName, DefaultProviderName, HelpProviderName)
	fs.String(FlagProviderID, DefaultProviderID, HelpProviderID)
	fs.String(FlagPartitionKey, DefaultPartitionKey, HelpPartitionKey)
	fs.Bool(FlagAutoStart, DefaultAutoStart, HelpAutoStart)
	fs.Int(FlagDrainTimeoutSeconds, DefaultDrainTimeoutSeconds, HelpDrainTimeoutSeconds)
	fs.Int(FlagPublishTimeoutSeconds, DefaultPublishTimeoutSeconds, HelpPublishTimeoutSeconds)
	fs.Int(FlagConnectAttempts, DefaultConnectAttempts, HelpConnectAttempts)
	fs.String(FlagNostrSecretKey, "", HelpNostrSecretKey)
	fs.Int(FlagRedisMaxLen, DefaultRedisMaxLen, HelpRedisMaxLen)
	fs.Int(FlagStatusIntervalSeconds, DefaultStatusIntervalSeconds, HelpStatusIntervalSeconds)
	fs.String(FlagMetricsEndpoint, "", HelpMetricsEndpoint)
	fs.String(FlagConfigFile, "", HelpConfigFile)
	fs.BoolP(FlagHelp, "h", false, HelpShowHelp)
	fs.Bool(FlagVersion, false, HelpShowVersion)
	return fs
}

// flagKeys maps flags onto configuration keys. Only flags the user actually
// set end up in the FlagSource, so lower-precedence sources still apply.
var flagKeys = []struct {
	flag string
	key  string
}{
	{FlagEndpoint, KeyEndpoint},
	{FlagSourceName, KeySourceName},
	{FlagProviderName, KeyProviderName},
	{FlagProviderID, KeyProviderID},
	{FlagPartitionKey, KeyPartitionKey},
	{FlagAutoStart, KeyAutoStart},
	{FlagDrainTimeoutSeconds, KeyDrainTimeoutSeconds},
	{FlagPublishTimeoutSeconds, KeyPublishTimeoutSeconds},
	{FlagConnectAttempts, KeyConnectAttempts},
	{FlagNostrSecretKey, KeyNostrSecretKey},
	{FlagRedisMaxLen, KeyRedisMaxLen},
	{FlagStatusIntervalSeconds, KeyStatusIntervalSeconds},
	{FlagMetricsEndpoint, KeyMetricsEndpoint},
}

// parseCLIFlags parses args and returns the explicitly set values.
func parseCLIFlags(args []string) (*parsedFlags, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	p := &parsedFlags{source: NewFlagSource(), flags: fs}
	p.help, _ = fs.GetBool(FlagHelp)
	p.configFile, _ = fs.GetString(FlagConfigFile)

	for _, fk := range flagKeys {
		if !fs.Changed(fk.flag) {
			continue
		}
		f := fs.Lookup(fk.flag)
		switch f.Value.Type() {
		case "int":
			v, _ := fs.GetInt(fk.flag)
			p.source.Set(fk.key, v)
		case "bool":
			v, _ := fs.GetBool(fk.flag)
			p.source.Set(fk.key, v)
		default:
			p.source.Set(fk.key, f.Value.String())
		}
	}
	return p, nil
}

// VersionRequested reports whether args ask for version output. The flag
// is handled by the binary before configuration is loaded.
func VersionRequested(args []string) bool {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return false
	}
	v, _ := fs.GetBool(FlagVersion)
	return v
}

// printUsage prints the usage message
func printUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, "%s - %s\n", AppName, AppDescription)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", HelpUsage)
	fmt.Fprintf(w, "  %s\n", UsageFormat)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", HelpOptions)
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", HelpEnvironmentVars)
	for _, e := range envKeys {
		fmt.Fprintf(w, "  %-32s %s\n", e.key, e.desc)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", HelpNote)
}
