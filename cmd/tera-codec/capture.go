// Copyright (c) 2024 Neomantra Corp
//
// capture-dump scans a capture file and either prints a summary (the
// teacher's go-humanize-formatted byte-count style, see
// internal/capture.Stats) or every decoded record as JSON. Date-range
// trimming follows the teacher's cmd/dbn-go-hist flags: an ISO8601
// string parsed with relvacode/iso8601, then compared as a YYYYMMDD
// integer the way neomantra/ymdflag compares dates.

package main

import (
	"fmt"
	"os"

	"github.com/relvacode/iso8601"
	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"

	"github.com/neomantra/ymdflag"

	"github.com/neomantra/tera-go/internal/capture"
)

var (
	captureJSON bool
	captureFrom string
	captureTo   string
)

var captureDumpCmd = &cobra.Command{
	Use:   "capture-dump file",
	Short: "Dumps the frames in a capture file",
	Long:  "Dumps the frames in a capture file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		reg := loadRegistry()

		var fromYMD, toYMD uint32
		if captureFrom != "" {
			t, err := iso8601.ParseString(captureFrom)
			requireNoError(err)
			fromYMD = ymdflag.TimeToYMD(t)
		}
		if captureTo != "" {
			t, err := iso8601.ParseString(captureTo)
			requireNoError(err)
			toYMD = ymdflag.TimeToYMD(t)
		}

		r, closer, err := capture.MakeCompressedReader(args[0], false)
		requireNoError(err)
		defer closer.Close()

		if captureJSON {
			scanner := capture.NewScanner(r, reg)
			err = scanner.Run(jsonDumpVisitor{fromYMD: fromYMD, toYMD: toYMD})
			requireNoError(err)
			return
		}

		stats, err := capture.CollectStats(r, reg)
		requireNoError(err)
		fmt.Println(stats.String())
	},
}

type jsonDumpVisitor struct {
	capture.NullVisitor
	fromYMD, toYMD uint32
}

func (v jsonDumpVisitor) OnFrame(f capture.Frame) error {
	ymd := ymdflag.TimeToYMD(f.CapturedAt)
	if v.fromYMD != 0 && ymd < v.fromYMD {
		return nil
	}
	if v.toYMD != 0 && ymd > v.toYMD {
		return nil
	}
	if f.Record == nil {
		return nil
	}
	jbytes, err := json.Marshal(struct {
		CapturedAt string `json:"captured_at"`
		Name       string `json:"name"`
		Opcode     int    `json:"opcode"`
		Record     any    `json:"record"`
	}{
		CapturedAt: f.CapturedAt.Format("2006-01-02T15:04:05.000000000Z07:00"),
		Name:       f.Name,
		Opcode:     f.Opcode,
		Record:     f.Record,
	})
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(append(jbytes, '\n'))
	return err
}
