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
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestGenerateEmailContent(t *testing.T) {
	dir, _ := setTestConfig(t)

	cfg, err := analysisConfig()
	if err != nil {
		t.Fatalf("analysisConfig: %v", err)
	}
	session, err := runSession(context.Background(), cfg, []string{dir})
	if err != nil {
		t.Fatalf("runSession: %v", err)
	}

	subject, body, err := generateEmailContent(session)
	if err != nil {
		t.Fatalf("generateEmailContent: %v", err)
	}

	if subject != "Listening summary for 2023-01 to 2023-10" {
		t.Errorf("Unexpected subject: %q", subject)
	}
	for _, want := range []string{
		"<h2>Top song artists by plays</h2>",
		"<td>Artist A</td>",
		"<th>Hours</th>",
		"Showing 1 of 1 podcasts",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Email body is missing %q:\n%s", want, body)
		}
	}
}

func TestSendEmailDryRun(t *testing.T) {
	dir, _ := setTestConfig(t)

	var out bytes.Buffer
	config := SendEmailConfig{From: "me@example.com", To: "you@example.com", DryRun: true}
	if err := sendEmail(context.Background(), &out, config, []string{dir}); err != nil {
		t.Fatalf("sendEmail: %v", err)
	}
	if !strings.HasPrefix(out.String(), "Would have sent email") {
		t.Errorf("Expected a dry run, got:\n%s", out.String())
	}
}

func TestSendEmailNeedsAPIKey(t *testing.T) {
	dir, _ := setTestConfig(t)

	config := SendEmailConfig{From: "me@example.com", To: "you@example.com"}
	err := sendEmail(context.Background(), &bytes.Buffer{}, config, []string{dir})
	if err == nil || !strings.Contains(err.Error(), "sendgrid_api_key") {
		t.Fatalf("Expected an error about sendgrid_api_key, got %v", err)
	}
}
