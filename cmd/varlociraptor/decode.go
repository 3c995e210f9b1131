package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/PROSIC/libprosic/internal/phred"
)

func newDecodePHREDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode-phred <value>",
		Short: "Convert a PHRED-scaled integer back to its probability",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			p, err := phred.ToProbability(n)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	}
}
