package main

import (
	"os"

	"github.com/kr/pretty"
	"github.com/spf13/cobra"
	"github.com/vito/tyck/pkg/ioctx"
	"github.com/vito/tyck/pkg/tyck"
)

func dumpCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "dump file",
		Short: "Print the parsed term tree of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			term, err := tyck.Parse(args[0], src)
			if err != nil {
				return tyck.WithSource(err, string(src))
			}
			_, err = pretty.Fprintf(ioctx.StdoutFromContext(cmd.Context()), "%# v\n", term)
			return err
		},
	}
}
