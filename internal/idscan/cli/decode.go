package cli

import (
	"github.com/spf13/cobra"

	"github.com/medflow/medflow-idscan/internal/idscan/domain"
	"github.com/medflow/medflow-idscan/internal/idscan/jmbg"
)

type decodeOutput struct {
	*jmbg.Decoded
	BirthDate string `json:"birth_date,omitempty"`
}

func newDecodeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <number>",
		Short: "Decode a 13-digit identity number",
		Long: `Decode splits an identity number into birth date, region, sex and serial
and verifies its check digit. Spaces, dashes, dots and slashes are ignored.

Example:
  idscan decode 1503985170016`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decoded, err := jmbg.Decode(domain.SanitizeIDNumber(args[0]))
			if err != nil {
				return err
			}

			out := decodeOutput{Decoded: decoded}
			if decoded.DateValid {
				out.BirthDate = decoded.BirthDateISO()
			}
			return opts.write(cmd.OutOrStdout(), out)
		},
	}
}
