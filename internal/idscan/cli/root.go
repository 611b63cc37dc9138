package cli

import (
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/medflow/medflow-idscan/pkg/logger"
)

// Version is set at build time with -ldflags
var Version = "dev"

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

type options struct {
	v       *viper.Viper
	cfgFile string
	verbose bool
	output  string
}

// NewRootCmd builds the idscan command tree
func NewRootCmd() *cobra.Command {
	opts := &options{v: viper.New()}

	root := &cobra.Command{
		Use:   "idscan",
		Short: "Extract and validate identity data from health card scans",
		Long: `idscan runs the MedFlow identity scan pipeline offline.

It detects the layout of a scanned payload (regional health cards, EHIC,
key/value QR codes, JSON, bare identity numbers, OCR text), extracts the
identity fields, validates them and prints the result with a quality score.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.initConfig()
		},
	}

	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default: ./config/idscan.yaml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline steps to stderr")
	root.PersistentFlags().StringVarP(&opts.output, "format", "o", outputJSON, "output format: json or yaml")

	root.AddCommand(newExtractCmd(opts), newDecodeCmd(opts), newVersionCmd())
	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func (o *options) initConfig() error {
	if o.output != outputJSON && o.output != outputYAML {
		return fmt.Errorf("unknown output format %q (want json or yaml)", o.output)
	}

	o.v.SetDefault("scan.auto_populate_score", 90)
	o.v.SetDefault("scan.review_score", 70)

	o.v.SetEnvPrefix("MEDFLOW")
	o.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	o.v.AutomaticEnv()

	if o.cfgFile != "" {
		o.v.SetConfigFile(o.cfgFile)
	} else {
		o.v.SetConfigName("idscan")
		o.v.SetConfigType("yaml")
		o.v.AddConfigPath("./config")
	}
	if err := o.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || o.cfgFile != "" {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

func (o *options) logger(w io.Writer) *logger.Logger {
	log := logger.NewWithWriter(w, "idscan", "development")
	level := zerolog.WarnLevel
	if o.verbose {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
	return log
}

// write renders v as JSON or YAML. YAML goes through the JSON encoding so
// both formats use the same keys.
func (o *options) write(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling result: %w", err)
	}
	if o.output == outputJSON {
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return fmt.Errorf("error marshaling result: %w", err)
	}
	_, err = w.Write(out)
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "idscan %s\n", Version)
		},
	}
}
