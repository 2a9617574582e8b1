package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/whatid/internal/what"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "text" | "json" | "yaml"
	MaxLength int    // identities longer than this are replaced by their digest; 0 disables
	Database  string // nickname registry path
}

// IDOptions returns the identity options implied by the global flags.
func (o *RootOptions) IDOptions(extra ...what.IDOption) []what.IDOption {
	opts := append([]what.IDOption{}, extra...)
	if o.MaxLength > 0 {
		opts = append(opts, what.MaxLength(o.MaxLength))
	}
	return opts
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command for the whatid CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	settings := newSettings()

	cmd := &cobra.Command{
		Use:   "whatid",
		Short: "whatid - canonical identity strings for configurations",
		Long: `Encode configurations into canonical identity strings and back.

Configuration Sources (in order of precedence):
1. Command line flags
2. Environment variables (WHATID_FORMAT, WHATID_MAX_LENGTH, WHATID_DB, ...)
3. Configuration file (WHATID_CONFIG, ./whatid.yaml or ~/.whatid/whatid.yaml)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadSettings(settings, cmd, opts); err != nil {
				return WrapExitError(ExitCommandError, "reading configuration", err)
			}
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			configureLogging(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	flags.IntVar(&opts.MaxLength, "max-length", 0, "replace identities longer than this by their digest (0 disables)")
	flags.StringVar(&opts.Database, "db", "", "path to the nickname registry database")

	// Add subcommands
	cmd.AddCommand(NewEncodeCommand(opts))
	cmd.AddCommand(NewDecodeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewHashCommand(opts))
	cmd.AddCommand(NewSelectCommand(opts))
	cmd.AddCommand(NewNickCommand(opts))

	return cmd
}

// newSettings configures viper with environment variables and config files.
func newSettings() *viper.Viper {
	v := viper.New()
	if configFile := os.Getenv("WHATID_CONFIG"); configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("whatid")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.whatid")
	}

	v.SetEnvPrefix("WHATID")
	// --max-length -> WHATID_MAX_LENGTH
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// loadSettings resolves the global options from flags, environment and the
// config file, in that order of precedence.
func loadSettings(v *viper.Viper, cmd *cobra.Command, opts *RootOptions) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	var bindErr error
	cmd.Root().PersistentFlags().VisitAll(func(flag *pflag.Flag) {
		if err := v.BindPFlag(flag.Name, flag); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	if bindErr != nil {
		return bindErr
	}

	opts.Verbose = v.GetBool("verbose")
	opts.Format = v.GetString("format")
	opts.MaxLength = v.GetInt("max-length")
	opts.Database = v.GetString("db")
	if opts.MaxLength < 0 {
		return fmt.Errorf("max-length must not be negative, got %d", opts.MaxLength)
	}
	return nil
}

// configureLogging installs the process-wide slog handler.
func configureLogging(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
