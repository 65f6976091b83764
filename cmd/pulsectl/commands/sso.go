package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/strrl/pulsectl/pkg/pulseapi"
)

func NewSSOCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sso",
		Short: "Manage SSO identity providers",
	}

	cmd.AddCommand(newSSOListCmd())
	cmd.AddCommand(newSSOAddCmd())
	cmd.AddCommand(newSSODeleteCmd())
	cmd.AddCommand(newSSOTestCmd())
	cmd.AddCommand(newSSOPreviewCmd())
	cmd.AddCommand(newSSOPreflightCmd())
	cmd.AddCommand(newSSOImportKeycloakCmd())

	return cmd
}

func newSSOListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List SSO providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			providers, err := c.SSO.List(cmd.Context())
			if err != nil {
				return err
			}

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tENABLED\tISSUER / METADATA")
			for _, p := range providers {
				source := p.IssuerURL
				if p.Type == pulseapi.ProviderSAML {
					source = p.MetadataURL
					if source == "" {
						source = p.SSOURL
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", p.ID, p.Name, p.Type, p.Enabled, orDash(source))
			}
			return w.Flush()
		},
	}
}

// providerFlags holds the flags shared by the commands that take a provider form.
type providerFlags struct {
	name, providerType, issuer, clientID, clientSecret string
	metadataURL, metadataFile, ssoURL, certFile         string
	groupsClaim                                         string
	domains, scopes                                     []string
	disabled                                            bool
}

func (f *providerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Provider display name")
	cmd.Flags().StringVar(&f.providerType, "type", pulseapi.ProviderOIDC, "Provider type: oidc or saml")
	cmd.Flags().StringVar(&f.issuer, "issuer", "", "OIDC issuer URL")
	cmd.Flags().StringVar(&f.clientID, "client-id", "", "OIDC client ID")
	cmd.Flags().StringVar(&f.clientSecret, "client-secret", "", "OIDC client secret")
	cmd.Flags().StringSliceVar(&f.scopes, "scope", nil, "OIDC scopes (repeatable)")
	cmd.Flags().StringVar(&f.metadataURL, "metadata-url", "", "SAML metadata URL")
	cmd.Flags().StringVar(&f.metadataFile, "metadata-file", "", "SAML metadata XML file")
	cmd.Flags().StringVar(&f.ssoURL, "sso-url", "", "SAML SSO URL (without metadata)")
	cmd.Flags().StringVar(&f.certFile, "cert-file", "", "SAML signing certificate file (without metadata)")
	cmd.Flags().StringVar(&f.groupsClaim, "groups-claim", "", "Claim carrying group membership")
	cmd.Flags().StringSliceVar(&f.domains, "domain", nil, "Allowed email domain (repeatable)")
	cmd.Flags().BoolVar(&f.disabled, "disabled", false, "Create the provider disabled")
}

func (f *providerFlags) provider() (pulseapi.SSOProvider, error) {
	p := pulseapi.SSOProvider{
		Name:           strings.TrimSpace(f.name),
		Type:           strings.ToLower(strings.TrimSpace(f.providerType)),
		Enabled:        !f.disabled,
		IssuerURL:      strings.TrimSpace(f.issuer),
		ClientID:       strings.TrimSpace(f.clientID),
		ClientSecret:   f.clientSecret,
		Scopes:         f.scopes,
		MetadataURL:    strings.TrimSpace(f.metadataURL),
		SSOURL:         strings.TrimSpace(f.ssoURL),
		AllowedDomains: f.domains,
		GroupsClaim:    strings.TrimSpace(f.groupsClaim),
	}
	if f.metadataFile != "" {
		data, err := os.ReadFile(f.metadataFile)
		if err != nil {
			return p, fmt.Errorf("read metadata file: %w", err)
		}
		p.MetadataXML = string(data)
	}
	if f.certFile != "" {
		data, err := os.ReadFile(f.certFile)
		if err != nil {
			return p, fmt.Errorf("read certificate file: %w", err)
		}
		p.Certificate = string(data)
	}
	return p, nil
}

func newSSOAddCmd() *cobra.Command {
	var flags providerFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an SSO provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := flags.provider()
			if err != nil {
				return err
			}

			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			created, err := c.SSO.Create(cmd.Context(), p)
			if err != nil {
				return err
			}
			c.Notifier.Success(fmt.Sprintf("Provider %s added", created.Name))
			fmt.Fprintln(cmd.OutOrStdout(), created.ID)
			return nil
		},
	}
	flags.register(cmd)

	return cmd
}

func newSSODeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an SSO provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			if err := c.SSO.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			c.Notifier.Success("Provider deleted")
			return nil
		},
	}
}

func newSSOTestCmd() *cobra.Command {
	var flags providerFlags

	cmd := &cobra.Command{
		Use:   "test [id]",
		Short: "Test an SSO provider connection",
		Long: `Ask the dashboard to test a provider. With an ID the stored provider is
tested; otherwise the provider described by the flags is.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			var p pulseapi.SSOProvider
			if len(args) == 1 {
				providers, err := c.SSO.List(cmd.Context())
				if err != nil {
					return err
				}
				found := false
				for _, candidate := range providers {
					if candidate.ID == args[0] {
						p, found = candidate, true
						break
					}
				}
				if !found {
					return fmt.Errorf("provider %q not found", args[0])
				}
			} else if p, err = flags.provider(); err != nil {
				return err
			}

			result, err := c.SSO.Test(cmd.Context(), p)
			if err != nil {
				return err
			}
			if !result.Success {
				c.Notifier.Error(orDash(result.Message))
			} else {
				c.Notifier.Success(orDash(result.Message))
			}
			if result.Details != "" {
				fmt.Fprintln(cmd.OutOrStdout(), result.Details)
			}
			return nil
		},
	}
	flags.register(cmd)

	return cmd
}

func newSSOPreviewCmd() *cobra.Command {
	var metadataURL, metadataFile string

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Preview SAML identity provider metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := pulseapi.MetadataPreviewRequest{MetadataURL: metadataURL}
			if metadataFile != "" {
				data, err := os.ReadFile(metadataFile)
				if err != nil {
					return fmt.Errorf("read metadata file: %w", err)
				}
				req.MetadataXML = string(data)
			}

			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			md, err := c.SSO.PreviewMetadata(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Entity ID: %s\n", md.EntityID)
			fmt.Fprintf(out, "SSO URL: %s\n", md.SSOURL)
			fmt.Fprintf(out, "SLO URL: %s\n", orDash(md.SLOURL))
			fmt.Fprintf(out, "Certificates: %d\n", len(md.Certificates))
			for _, f := range md.NameIDFormats {
				fmt.Fprintf(out, "NameID format: %s\n", f)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&metadataURL, "metadata-url", "", "SAML metadata URL")
	cmd.Flags().StringVar(&metadataFile, "metadata-file", "", "SAML metadata XML file")

	return cmd
}

func newSSOPreflightCmd() *cobra.Command {
	var issuer, clientID string

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check an OIDC issuer from this machine",
		Long: `Load the issuer's discovery document and signing keys from this machine and
render a sample login URL, before the provider is saved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			result, err := c.SSO.Preflight(cmd.Context(), issuer, clientID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Issuer: %s\n", result.Issuer)
			fmt.Fprintf(out, "  Authorization endpoint: %s\n", result.AuthURL)
			fmt.Fprintf(out, "  Token endpoint: %s\n", result.TokenURL)
			fmt.Fprintf(out, "  JWKS: %s (%d keys)\n", result.JWKSURL, result.KeyCount)
			fmt.Fprintf(out, "  Scopes: %s\n", orDash(strings.Join(result.ScopesSupported, " ")))
			fmt.Fprintf(out, "  Groups claim: %t\n", result.SupportsGroups)
			if result.SampleLoginURL != "" {
				fmt.Fprintf(out, "  Sample login: %s\n", result.SampleLoginURL)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&issuer, "issuer", "", "OIDC issuer URL")
	cmd.Flags().StringVar(&clientID, "client-id", "", "OIDC client ID used for the sample login URL")
	_ = cmd.MarkFlagRequired("issuer")

	return cmd
}

func newSSOImportKeycloakCmd() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "import-keycloak <client-id>",
		Short: "Build an OIDC provider from a Keycloak client",
		Long: `Read a client from the Keycloak realm configured under keycloak.* and turn it
into an OIDC provider. The draft is printed; --save stores it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			draft, err := c.SSO.ImportFromKeycloak(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name: %s\n", draft.Name)
			fmt.Fprintf(out, "Issuer: %s\n", draft.IssuerURL)
			fmt.Fprintf(out, "Client ID: %s\n", draft.ClientID)
			fmt.Fprintf(out, "Client secret: %t\n", draft.ClientSecret != "")
			fmt.Fprintf(out, "Scopes: %s\n", strings.Join(draft.Scopes, " "))

			if !save {
				return nil
			}
			created, err := c.SSO.Create(cmd.Context(), *draft)
			if err != nil {
				return err
			}
			c.Notifier.Success(fmt.Sprintf("Provider %s added", created.Name))
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Store the imported provider")

	return cmd
}
