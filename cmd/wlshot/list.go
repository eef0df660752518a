package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available outputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			outputs, err := listOutputs(cmd.Context(), a.options())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, o := range outputs {
				fmt.Fprintf(w, "%s: %dx%d+%d+%d scale=%d transform=%s",
					o.Name, o.Width, o.Height, o.X, o.Y, o.Scale, o.Transform)
				if o.Description != "" {
					fmt.Fprintf(w, " (%s)", o.Description)
				}
				fmt.Fprintln(w)
			}
			return nil
		},
	}
}
