// Copyright (c) 2024 Neomantra Corp
//
// fetch-schema downloads a .def/.map schema file over HTTP, retrying
// transient failures. Grounded on the teacher's internal/tui/downloads.go
// download loop: a retryablehttp.Client with a bounded RetryMax, writing
// the response body to a local file. The pre-overwrite confirmation gate
// is grounded on the teacher's cmd/dbn-go-hist/main.go
// requireHumanConfirmation(), which guards its own destructive action
// (spending against a paid API) behind a huh.NewConfirm() prompt; here
// the destructive action is silently clobbering an existing local file.

package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/spf13/cobra"
)

var fetchSchemaYes bool

func requireOverwriteConfirmation(dest string) {
	doOverwrite := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Affirmative("Yes, overwrite").
				Negative("No, cancel").
				Title(fmt.Sprintf("%s already exists. Overwrite it?", dest)).
				Value(&doOverwrite),
		))
	requireNoError(form.Run())
	if !doOverwrite {
		os.Exit(0)
	}
}

var fetchSchemaCmd = &cobra.Command{
	Use:   "fetch-schema url dest",
	Short: "Downloads a schema definition file from url and writes it to dest",
	Long:  "Downloads a schema definition file from url and writes it to dest",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		url, dest := args[0], args[1]

		if !fetchSchemaYes {
			if _, err := os.Stat(dest); err == nil {
				requireOverwriteConfirmation(dest)
			}
		}

		req, err := retryablehttp.NewRequest(http.MethodGet, url, nil)
		requireNoError(err)

		client := retryablehttp.NewClient()
		client.RetryMax = 5
		client.Logger = log.New(io.Discard, "", log.LstdFlags)

		resp, err := client.Do(req)
		requireNoError(err)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			requireNoError(fmt.Errorf("fetch-schema: %s returned %s", url, resp.Status))
		}

		out, err := os.Create(dest)
		requireNoError(err)
		defer out.Close()

		_, err = io.Copy(out, resp.Body)
		requireNoError(err)
		fmt.Printf("wrote %s\n", dest)
	},
}
