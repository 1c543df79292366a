package main

import (
	"io"

	"github.com/jrsteele09/go-erp-client/credentials"
	"github.com/jrsteele09/go-erp-client/internal/config"
	"github.com/jrsteele09/go-erp-client/internal/logger"
	"github.com/jrsteele09/go-erp-client/tenantclient"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

// rootOptions are the persistent flags. Set flags win over the environment,
// which wins over the profile file.
type rootOptions struct {
	tenant      string
	apiHost     string
	scheme      string
	connect     string
	credentials string
	configPath  string
	logLevel    string
	refreshMode string

	out io.Writer
	err io.Writer
	cmd *cobra.Command
}

func newRootCommand(out, errOut io.Writer) *cobra.Command {
	o := &rootOptions{out: out, err: errOut}

	cmd := &cobra.Command{
		Use:           "erpctl",
		Short:         "Authenticated command line client for an ERP tenant",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			o.cmd = cmd
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&o.tenant, "tenant", "t", "", "tenant schema name (ERP_TENANT)")
	flags.StringVar(&o.apiHost, "api-host", "", "API host tenants hang off (ERP_API_HOST)")
	flags.StringVar(&o.scheme, "scheme", "", "http or https (ERP_API_SCHEME)")
	flags.StringVar(&o.connect, "connect", "", "dial every request to this host:port (ERP_CONNECT)")
	flags.StringVar(&o.credentials, "credentials", "", "credentials file (ERP_CREDENTIALS_FILE)")
	flags.StringVar(&o.configPath, "config", "", "YAML profile with client settings")
	flags.StringVar(&o.logLevel, "log-level", "warn", "debug, info, warn or error")
	flags.StringVar(&o.refreshMode, "refresh-mode", "", "global or tenant refresh endpoint (ERP_REFRESH_MODE)")

	cmd.AddCommand(
		newLoginCommand(o),
		newLogoutCommand(o),
		newRefreshCommand(o),
		newWhoamiCommand(o),
	)
	for _, method := range []string{"GET", "POST", "PUT", "PATCH", "DELETE"} {
		cmd.AddCommand(newRequestCommand(o, method))
	}
	return cmd
}

// settings resolves the effective client settings.
type settings struct {
	config.ClientConfig
	o *rootOptions
}

func (o *rootOptions) settings() (*settings, error) {
	profile, err := config.LoadProfile(o.configPath)
	if err != nil {
		return nil, err
	}
	return &settings{ClientConfig: config.New(profile), o: o}, nil
}

func (s *settings) flagOr(name, value, fallback string) string {
	if s.o.cmd != nil && s.o.cmd.Flags().Changed(name) {
		return value
	}
	return fallback
}

func (s *settings) GetTenant() string {
	return s.flagOr("tenant", s.o.tenant, s.ClientConfig.GetTenant())
}

func (s *settings) GetAPIHost() string {
	return s.flagOr("api-host", s.o.apiHost, s.ClientConfig.GetAPIHost())
}

func (s *settings) GetAPIScheme() string {
	return s.flagOr("scheme", s.o.scheme, s.ClientConfig.GetAPIScheme())
}

func (s *settings) GetConnectAddress() string {
	return s.flagOr("connect", s.o.connect, s.ClientConfig.GetConnectAddress())
}

func (s *settings) GetCredentialsFile() string {
	return s.flagOr("credentials", s.o.credentials, s.ClientConfig.GetCredentialsFile())
}

func (s *settings) GetRefreshMode() config.RefreshMode {
	mode := config.RefreshMode(s.flagOr("refresh-mode", s.o.refreshMode, string(s.ClientConfig.GetRefreshMode())))
	if mode != config.RefreshTenant {
		return config.RefreshGlobal
	}
	return mode
}

func (o *rootOptions) logger() zerolog.Logger {
	return logger.NewWithWriter(o.err, "DEV", o.logLevel)
}

// client builds a tenant client backed by the credentials file.
func (o *rootOptions) client() (*tenantclient.Client, *credentials.FileStore, error) {
	s, err := o.settings()
	if err != nil {
		return nil, nil, err
	}

	store := credentials.NewFileStore(s.GetCredentialsFile())
	opts := []tenantclient.Option{
		tenantclient.WithAPIHost(s.GetAPIHost()),
		tenantclient.WithScheme(s.GetAPIScheme()),
		tenantclient.WithDialAddress(s.GetConnectAddress()),
		tenantclient.WithTimeout(s.GetRequestTimeout()),
		tenantclient.WithStore(store),
		tenantclient.WithLogger(o.logger()),
	}
	if s.GetRefreshMode() == config.RefreshTenant {
		opts = append(opts, tenantclient.WithTenantRefresh())
	}
	if limit := s.GetRateLimit(); limit > 0 {
		opts = append(opts, tenantclient.WithRateLimiter(rate.NewLimiter(rate.Limit(limit), 1)))
	}

	c, err := tenantclient.New(s.GetTenant(), "", opts...)
	if err != nil {
		return nil, nil, err
	}
	return c, store, nil
}
