package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/stevedomin/termtable"
)

func newListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List video capture devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openAdapter(flags)
			if err != nil {
				return err
			}
			defer a.Cleanup()

			devices, err := a.Devices()
			if err != nil {
				return err
			}
			if len(devices) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No capture devices found")
				return nil
			}

			t := termtable.NewTable(nil, &termtable.TableOptions{
				Padding:      2,
				UseSeparator: false,
			})
			t.SetHeader([]string{"Index", "ID", "Name"})
			for _, d := range devices {
				t.AddRow([]string{strconv.Itoa(d.Index), d.ID, d.Name})
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}
