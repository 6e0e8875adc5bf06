// Copyright (c) 2024 Neomantra Corp

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"

	tera "github.com/neomantra/tera-go"
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decodes a hex-encoded TERA wire frame (read from stdin or a file argument) into JSON",
	Long:  "Decodes a hex-encoded TERA wire frame (read from stdin or a file argument) into JSON",
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

		buf, err := hex.DecodeString(strings.TrimSpace(string(data)))
		requireNoError(err)

		opcode, err := frameOpcode(buf)
		requireNoError(err)

		name, ok := reg.NameForOpcode(opcode)
		if !ok {
			requireNoError(fmt.Errorf("no message mapped to opcode %d", opcode))
		}
		schema, err := reg.Resolve(name, "*")
		requireNoError(err)

		record, err := tera.Decode(reg, schema, buf)
		requireNoError(err)

		jbytes, err := json.MarshalIndent(record, "", "  ")
		requireNoError(err)
		fmt.Println(string(jbytes))
	},
}
