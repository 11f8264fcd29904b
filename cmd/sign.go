package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/isometry/calendly-webhook/internal/config"
	"github.com/isometry/calendly-webhook/internal/validation"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func cmdSign() *cobra.Command {
	var (
		bodyFile  string
		timestamp int64
		verify    bool
	)
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print the Calendly-Webhook-Signature header value for a payload",
		Long: "Sign a webhook payload with the configured signing key. The payload is read from --body-file, " +
			"or from stdin when no file is given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if config.Calendly.Secret == "" {
				return errors.New("a signing key is required to sign payloads")
			}
			body, err := readBody(cmd.InOrStdin(), bodyFile)
			if err != nil {
				return err
			}
			if timestamp == 0 {
				timestamp = time.Now().Unix()
			}
			header := validation.Sign([]byte(config.Calendly.Secret), timestamp, body)
			if verify {
				headers := map[string]string{validation.SignatureHeader: header}
				if err := validation.NewVerifier([]byte(config.Calendly.Secret),
					validation.WithTolerance(config.Calendly.Tolerance)).Verify(headers, body); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), header)
			return err
		},
	}
	cmd.Flags().StringVarP(&bodyFile, "body-file", "f", "", "path to the payload to sign (default stdin)")
	cmd.Flags().Int64VarP(&timestamp, "timestamp", "T", 0, "unix timestamp to sign with (default now)")
	cmd.Flags().BoolVar(&verify, "verify", false, "verify the produced header against the configured replay window")
	return cmd
}

func readBody(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		body, err := io.ReadAll(stdin)
		return body, errors.Wrap(err, "failed to read payload from stdin")
	}
	body, err := os.ReadFile(path)
	return body, errors.Wrapf(err, "failed to read payload from %s", path)
}
