package cmd

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/isometry/calendly-webhook/internal/config"
	"github.com/spf13/cobra"
)

func cmdLambda() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lambda",
		Short: "Serve the webhook as an AWS Lambda function",
		RunE:  runLambda,
	}
	bindEnvMap(cmd, lambdaEnvMapString)
	return cmd
}

func runLambda(cmd *cobra.Command, _ []string) error {
	logger = logger.With("payloadType", config.Lambda.PayloadType)

	rt, store, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	logger.Info("lambda starting...")
	lambda.StartWithOptions(rt.HandleEvent,
		lambda.WithContext(cmd.Context()))
	return nil
}
