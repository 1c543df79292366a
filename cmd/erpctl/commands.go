package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jrsteele09/go-erp-client/credentials"
	"github.com/jrsteele09/go-erp-client/internal/config"
	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/tenantclient"
	"github.com/spf13/cobra"
)

func newLoginCommand(o *rootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the tenant and store the token pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = config.GetEnv("ERP_PASSWORD", "")
			}
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password (or ERP_PASSWORD) are required")
			}

			c, store, err := o.client()
			if err != nil {
				return err
			}
			result, err := c.Login(cmd.Context(), email, password)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(o.out, "Logged in to %s as %s\n", c.Origin(), email)
			fmt.Fprintf(o.out, "Credentials saved to %s\n", store.Path())
			if len(result.User) > 0 {
				return printJSON(o, result.User)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "login password (ERP_PASSWORD)")
	return cmd
}

func newLogoutCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := o.settings()
			if err != nil {
				return err
			}
			// No tenant is needed to forget a session.
			if err := credentials.NewFileStore(s.GetCredentialsFile()).Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(o.out, "Logged out")
			return nil
		},
	}
}

func newRefreshCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the stored refresh token for a new access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, _, err := o.client()
			if err != nil {
				return err
			}
			tok, err := c.RefreshTenantToken(cmd.Context())
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(o.out, "Access token refreshed%s\n", expiresIn(tok.Expiry))
			return nil
		},
	}
}

func newWhoamiCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the tenant and stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, store, err := o.client()
			if err != nil {
				return err
			}
			fmt.Fprintf(o.out, "Tenant:      %s\n", c.SchemaName())
			fmt.Fprintf(o.out, "Origin:      %s\n", c.Origin())
			fmt.Fprintf(o.out, "Credentials: %s\n", store.Path())

			tok, err := store.Load(cmd.Context())
			if err != nil {
				fmt.Fprintln(o.out, "Session:     not logged in")
				return nil
			}
			fmt.Fprintf(o.out, "Session:     logged in%s\n", expiresIn(tok.Expiry))
			fmt.Fprintf(o.out, "Refreshable: %t\n", tok.RefreshToken != "")
			return nil
		},
	}
}

func newRequestCommand(o *rootOptions, method string) *cobra.Command {
	var data string
	var query []string

	cmd := &cobra.Command{
		Use:   strings.ToLower(method) + " <path>",
		Short: method + " a tenant resource, e.g. /inventory/location/",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := o.client()
			if err != nil {
				return err
			}

			req := tenantclient.Request{Method: method, Path: args[0], Query: url.Values{}}
			for _, kv := range query {
				k, v, _ := strings.Cut(kv, "=")
				req.Query.Add(k, v)
			}
			if data != "" {
				body := []byte(data)
				if strings.HasPrefix(data, "@") {
					if body, err = os.ReadFile(strings.TrimPrefix(data, "@")); err != nil {
						return err
					}
				}
				if !json.Valid(body) {
					return fmt.Errorf("--data is not valid JSON")
				}
				req.Body = json.RawMessage(body)
			}

			resp, err := c.Do(cmd.Context(), req)
			if err != nil {
				return describe(err)
			}
			if len(resp.Body) == 0 {
				fmt.Fprintf(o.out, "%d\n", resp.StatusCode)
				return nil
			}
			return printJSON(o, resp.Body)
		},
	}
	if method != "GET" && method != "DELETE" {
		cmd.Flags().StringVarP(&data, "data", "d", "", "JSON body, or @file")
	}
	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "query parameter key=value, repeatable")
	return cmd
}

func printJSON(o *rootOptions, body []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		_, err = o.out.Write(append(body, '\n'))
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(o.out)
	return err
}

// describe turns a client error into a message naming what the user can do.
func describe(err error) error {
	var apiErr *tenantclient.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Kind {
	case tenantclient.KindAuth:
		return fmt.Errorf("session expired or invalid, run erpctl login: %w", err)
	case tenantclient.KindValidation, tenantclient.KindHTTP:
		if len(apiErr.Payload) > 0 {
			return fmt.Errorf("%w\n%s", err, apiErr.Payload)
		}
	}
	return err
}

func expiresIn(expiry time.Time) string {
	if expiry.IsZero() {
		return ""
	}
	d := time.Until(expiry).Round(time.Second)
	if d <= 0 {
		return fmt.Sprintf(" (access token expired %s ago)", -d)
	}
	return fmt.Sprintf(" (access token expires in %s)", d)
}
