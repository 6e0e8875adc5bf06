// Copyright (c) 2024 Neomantra Corp

package main

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	tera "github.com/neomantra/tera-go"
)

var (
	encodeMessage string
	encodeVersion string
	encodeOut     string
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encodes a JSON record (read from stdin or a file argument) into a TERA wire frame",
	Long:  "Encodes a JSON record (read from stdin or a file argument) into a TERA wire frame",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		reg := loadRegistry()

		var data []byte
		var err error
		if len(args) == 1 {
			data, err = os.ReadFile(args[0])
		} else {
			data, err = io.ReadAll(os.Stdin)
		}
		requireNoError(err)

		schema, err := reg.Resolve(encodeMessage, encodeVersion)
		requireNoError(err)

		record, err := tera.DecodeJSONRecord(schema, data)
		requireNoError(err)

		buf, err := tera.Encode(reg, schema, record)
		requireNoError(err)

		writeFrameOutput(buf)
	},
}

func writeFrameOutput(buf []byte) {
	if encodeOut == "-" {
		fmt.Fprintln(os.Stdout, hex.EncodeToString(buf))
		return
	}
	requireNoError(os.WriteFile(encodeOut, buf, 0o644))
}

// frameOpcode reads the opcode out of an already-encoded frame's header,
// per spec.md §4.5's "outermost call prepends a 4-byte header: total
// length then opcode."
func frameOpcode(buf []byte) (int, error) {
	if len(buf) < 4 {
		return 0, fmt.Errorf("frame too short to contain a header")
	}
	return int(binary.LittleEndian.Uint16(buf[2:4])), nil
}
