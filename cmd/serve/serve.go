package serve

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.od2.network/bearergw/cmd/providers"
	"go.od2.network/bearergw/pkg/authgw"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// HeaderUser carries the authorized user ID to the upstream.
const HeaderUser = "X-Authenticated-User"

var Cmd = cobra.Command{
	Use:   "serve",
	Short: "Run bearer token gateway",
	Long: "Runs an HTTP reverse proxy admitting only requests with a valid bearer token.\n" +
		"The user ID of the token is forwarded in the " + HeaderUser + " header.",
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		app := providers.NewApp(
			cmd,
			fx.Provide(newServeFlags),
			fx.Invoke(runServe, runMetrics),
		)
		app.Run()
	},
}

func init() {
	flags := Cmd.Flags()
	flags.String("bind", ":8080", "TCP listen address")
	flags.String("socket", "", "UNIX socket address, overrides --bind")
	flags.String("upstream", "", "Upstream URL")
	flags.Int64("max-form-bytes", 1<<20, "Max size of form request bodies")
}

type serveFlags struct {
	network      string
	address      string
	upstream     *url.URL
	maxFormBytes int64
}

func newServeFlags(cmd *cobra.Command) (*serveFlags, error) {
	flags := cmd.Flags()
	bind, err := flags.GetString("bind")
	if err != nil {
		panic(err)
	}
	socket, err := flags.GetString("socket")
	if err != nil {
		panic(err)
	}
	upstream, err := flags.GetString("upstream")
	if err != nil {
		panic(err)
	}
	maxFormBytes, err := flags.GetInt64("max-form-bytes")
	if err != nil {
		panic(err)
	}
	f := &serveFlags{
		network:      "tcp",
		address:      bind,
		maxFormBytes: maxFormBytes,
	}
	if socket != "" {
		f.network, f.address = "unix", socket
	}
	if upstream == "" {
		return nil, fmt.Errorf("missing --upstream")
	}
	f.upstream, err = url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("invalid --upstream: %w", err)
	}
	return f, nil
}

// NewProxy returns a reverse proxy to upstream forwarding the request identity.
// Identity headers set by the client are dropped.
func NewProxy(upstream *url.URL) *httputil.ReverseProxy {
	proxy := httputil.NewSingleHostReverseProxy(upstream)
	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		director(req)
		req.Header.Del(HeaderUser)
		if id, err := authgw.IdentityFromContext(req.Context()); err == nil {
			req.Header.Set(HeaderUser, id.ID)
		}
	}
	return proxy
}

// NewHandler guards next with the filter.
func NewHandler(filter *authgw.Filter, errWriter authgw.ErrorWriter, maxFormBytes int64, next http.Handler) http.Handler {
	return authgw.FormBody(maxFormBytes, filter.Middleware(errWriter, next))
}

func runServe(
	lc fx.Lifecycle,
	log *zap.Logger,
	flags *serveFlags,
	filter *authgw.Filter,
	errWriter authgw.ErrorWriter,
) {
	log.Info("Proxying to upstream", zap.String("upstream", flags.upstream.String()))
	proxy := NewProxy(flags.upstream)
	proxy.ErrorLog = zap.NewStdLog(log.Named("proxy"))
	hs := &http.Server{
		Handler: NewHandler(filter, errWriter, flags.maxFormBytes, proxy),
	}
	providers.LifecycleServeHTTP(log, lc, flags.network, flags.address, hs)
}

func runMetrics(lc fx.Lifecycle, log *zap.Logger) error {
	bind := viper.GetString(providers.ConfMetricsBind)
	if bind == "" {
		log.Info("Metrics server disabled")
		return nil
	}
	handler, err := providers.SetupPrometheus()
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	providers.LifecycleServeHTTP(log.Named("metrics"), lc, "tcp", bind, &http.Server{Handler: mux})
	return nil
}
