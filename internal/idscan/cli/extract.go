package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/medflow/medflow-idscan/internal/idscan/domain"
	"github.com/medflow/medflow-idscan/internal/idscan/pipeline"
)

// maxInputBytes caps what extract reads from a file or stdin
const maxInputBytes = 1 << 20

// extractOutput is what extract prints
type extractOutput struct {
	Format   domain.DocumentFormat   `json:"format"`
	Decision domain.Decision         `json:"decision"`
	Fields   domain.FieldSet         `json:"fields"`
	Report   domain.ValidationReport `json:"report"`
}

func newExtractCmd(opts *options) *cobra.Command {
	var channel string

	cmd := &cobra.Command{
		Use:   "extract [file|-]",
		Short: "Extract identity fields from a scan payload",
		Long: `Extract reads one scan payload from a file, or from stdin when the
argument is "-" or missing, and prints the extraction result.

Example:
  echo 'IME:Marko|PREZIME:Marković|JMBG:1503985170016' | idscan extract
  idscan extract ocr.txt --channel free_text -o yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := "-"
			if len(args) == 1 {
				source = args[0]
			}
			payload, err := readPayload(cmd.InOrStdin(), source)
			if err != nil {
				return err
			}

			input := domain.RawScanInput{Payload: payload, Channel: domain.Channel(channel)}
			if !input.Channel.Valid() {
				return fmt.Errorf("unknown channel %q (want %s or %s)", channel, domain.ChannelStructuredCode, domain.ChannelFreeText)
			}

			log := opts.logger(cmd.ErrOrStderr()).WithComponent("extract")
			res, err := pipeline.New().Extract(input)
			if err != nil {
				return err
			}

			thresholds := domain.Thresholds{
				AutoPopulate: opts.v.GetInt("scan.auto_populate_score"),
				Review:       opts.v.GetInt("scan.review_score"),
			}
			out := extractOutput{
				Format:   res.Format,
				Decision: domain.Decide(res.Report, thresholds),
				Fields:   res.Fields,
				Report:   res.Report,
			}
			log.Info().
				Str("format", string(out.Format)).
				Int("quality_score", out.Report.QualityScore).
				Str("decision", string(out.Decision)).
				Msg("scan extracted")

			return opts.write(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVarP(&channel, "channel", "c", string(domain.ChannelStructuredCode), "scan channel: structured_code or free_text")
	return cmd
}

func readPayload(stdin io.Reader, source string) (string, error) {
	r := stdin
	if source != "-" {
		f, err := os.Open(source)
		if err != nil {
			return "", fmt.Errorf("failed to open payload: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(io.LimitReader(r, maxInputBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read payload: %w", err)
	}
	if len(data) > maxInputBytes {
		return "", fmt.Errorf("payload exceeds %d bytes", maxInputBytes)
	}

	payload := strings.TrimRight(string(data), "\r\n")
	if strings.TrimSpace(payload) == "" {
		return "", fmt.Errorf("payload is empty")
	}
	return payload, nil
}
