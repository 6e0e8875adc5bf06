// Copyright (c) 2024 Neomantra Corp
//
// query loads a capture file's decoded scalar fields into an in-memory
// DuckDB warehouse (internal/warehouse) and runs one SQL statement
// against it, printing results as tab-separated rows.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neomantra/tera-go/internal/capture"
	"github.com/neomantra/tera-go/internal/warehouse"
)

var queryCmd = &cobra.Command{
	Use:   "query file sql",
	Short: "Loads a capture file into DuckDB and runs a SQL query against it",
	Long:  "Loads a capture file into DuckDB and runs a SQL query against it",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		reg := loadRegistry()
		captureFile, query := args[0], args[1]

		r, closer, err := capture.MakeCompressedReader(captureFile, false)
		requireNoError(err)
		defer closer.Close()

		var frames []capture.Frame
		scanner := capture.NewScanner(r, reg)
		requireNoError(scanner.Run(collectVisitor{frames: &frames}))

		wh, err := warehouse.Open(logger)
		requireNoError(err)
		defer wh.Close()

		requireNoError(wh.LoadFrames(frames))

		cols, rows, err := wh.Query(query)
		requireNoError(err)

		fmt.Println(strings.Join(cols, "\t"))
		for _, row := range rows {
			strs := make([]string, len(row))
			for i, v := range row {
				strs[i] = fmt.Sprintf("%v", v)
			}
			fmt.Println(strings.Join(strs, "\t"))
		}
	},
}

type collectVisitor struct {
	capture.NullVisitor
	frames *[]capture.Frame
}

func (v collectVisitor) OnFrame(f capture.Frame) error {
	*v.frames = append(*v.frames, f)
	return nil
}
