/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"html"
	"io"
	"os"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/unwrapped/internal/analysis"
)

type SendEmailConfig struct {
	From           string
	To             string
	DryRun         bool
	SendgridAPIKey string
}

var emailCmd = &cobra.Command{
	Use:   "email <address> <file or directory...>",
	Short: "Emails the summary",
	Long:  `Builds the same top lists as 'summary' and emails them as an HTML report via SendGrid.`,
	Args:  cobra.MinimumNArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetString("from") == "" {
			return fmt.Errorf("required flag(s) \"from\" not set")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		config := SendEmailConfig{
			From:           viper.GetString("from"),
			To:             args[0],
			DryRun:         viper.GetBool("dryRun"),
			SendgridAPIKey: viper.GetString("sendgrid_api_key"),
		}
		err := sendEmail(cmd.Context(), os.Stdout, config, args[1:])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(emailCmd)

	var dryRun bool
	emailCmd.Flags().BoolVarP(&dryRun, "dry_run", "n", false, "When true, just print instead of emailing")
	viper.BindPFlag("dryRun", emailCmd.Flags().Lookup("dry_run"))
}

func sendEmail(ctx context.Context, out io.Writer, config SendEmailConfig, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !config.DryRun && config.SendgridAPIKey == "" {
		return fmt.Errorf("sendgrid_api_key must be set in order to send emails")
	}

	cfg, err := analysisConfig()
	if err != nil {
		return err
	}
	session, err := runSession(ctx, cfg, args)
	if err != nil {
		return err
	}
	subject, body, err := generateEmailContent(session)
	if err != nil {
		return err
	}

	if config.DryRun {
		fmt.Fprintf(out, "Would have sent email: \nsubject: %s\n%s\n", subject, body)
		return nil
	}

	from := mail.NewEmail("unwrapped", config.From)
	to := mail.NewEmail(config.To, config.To)
	message := mail.NewSingleEmail(from, subject, to, subject, body)
	client := sendgrid.NewSendClient(config.SendgridAPIKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("sendEmail: %w", err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("sendEmail: status %d: %s", response.StatusCode, response.Body)
	}
	logger.Info("Sent summary email")
	return nil
}

func generateEmailContent(session *analysis.Session) (subject string, body string, err error) {
	analyzers, err := summaryAnalyzers(session)
	if err != nil {
		return "", "", err
	}

	var out strings.Builder
	out.WriteString(`
<html>
  <head>
<style>
td {
  padding: 0.1em 0.2em;
}
table, th, td {
  border: 1px solid black;
  border-collapse: collapse;
}
</style>
  </head>
  <body>
`)
	for _, analyzer := range analyzers {
		a, err := analyzer.GetResults(session)
		if err != nil {
			return "", "", fmt.Errorf("getting results for %s: %w", analyzer.GetName(), err)
		}

		out.WriteString("<div>\n")
		fmt.Fprintf(&out, "<h2>%s</h2>\n", html.EscapeString(analyzer.GetName()))
		if len(a.results) <= 1 {
			out.WriteString("<div>No listens found.</div>\n")
		} else {
			out.WriteString("<table>\n<thead>\n<tr>")
			for _, header := range a.results[0] {
				fmt.Fprintf(&out, "<th>%s</th>", html.EscapeString(header))
			}
			out.WriteString("</tr>\n</thead>\n<tbody>\n")
			for _, row := range a.results[1:] {
				out.WriteString("<tr>\n")
				for _, column := range row {
					fmt.Fprintf(&out, "<td>%s</td>\n", html.EscapeString(column))
				}
				out.WriteString("</tr>\n")
			}
			out.WriteString("</tbody>\n</table>\n")
		}
		fmt.Fprintf(&out, "<div>%s</div>\n</div>\n", html.EscapeString(a.summary))
	}
	out.WriteString("  </body>\n</html>\n")

	subject = fmt.Sprintf("Listening summary for %s", session.Config().Window)
	return subject, out.String(), nil
}
