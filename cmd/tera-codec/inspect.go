// Copyright (c) 2024 Neomantra Corp

package main

import (
	"fmt"

	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"

	tera "github.com/neomantra/tera-go"
)

var inspectVersion string

var inspectCmd = &cobra.Command{
	Use:   "inspect name...",
	Short: "Prints the augmented field layout of one or more loaded messages",
	Long:  "Prints the augmented field layout of one or more loaded messages",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		reg := loadRegistry()
		for _, name := range args {
			schema, err := reg.Resolve(name, inspectVersion)
			if err != nil {
				fmt.Printf("%s: %s\n", name, err.Error())
				continue
			}
			jbytes, err := json.MarshalIndent(describeSchema(schema), "", "  ")
			requireNoError(err)
			fmt.Println(string(jbytes))
		}
	},
}

type schemaField struct {
	Name   string        `json:"name"`
	Kind   string        `json:"kind"`
	Path   string        `json:"path,omitempty"`
	Fields []schemaField `json:"fields,omitempty"`
}

func describeSchema(schema tera.Schema) []schemaField {
	return describeFields(schema.Fields)
}

func describeFields(fields []*tera.Field) []schemaField {
	out := make([]schemaField, 0, len(fields))
	for _, f := range fields {
		d := schemaField{Name: f.Name, Kind: f.Kind.String(), Path: f.Path}
		if len(f.Fields) > 0 {
			d.Fields = describeFields(f.Fields)
		}
		out = append(out, d)
	}
	return out
}
