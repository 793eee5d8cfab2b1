package check

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.od2.network/bearergw/cmd/providers"
	"go.od2.network/bearergw/pkg/authgw"
	"go.od2.network/bearergw/pkg/oauth2err"
	"go.od2.network/bearergw/pkg/token"
	"go.uber.org/zap"
)

var Cmd = cobra.Command{
	Use:   "check <token>",
	Short: "Validate an access token",
	Long: "Looks up an access token in the configured token store\n" +
		"and prints the user it authorizes or the OAuth2 error it is rejected with.",
	Args: cobra.ExactArgs(1),
	Run:  providers.NewCmd(runCheck),
}

func runCheck(
	ctx context.Context,
	cmd *cobra.Command,
	log *zap.Logger,
	args []string,
	filter *authgw.Filter,
) error {
	tok := args[0]
	log.Info("Checking token", token.Field(tok))
	out := cmd.OutOrStdout()
	id, err := filter.Validator().Validate(ctx, tok)
	if perr, ok := oauth2err.As(err); ok {
		_, _ = fmt.Fprintf(out, "rejected: %s (HTTP %d)\n", perr.Kind, perr.HTTPStatus())
		return perr
	} else if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "admitted: user_id=%s\n", id.ID)
	return nil
}
