package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bitrec/bitrec/pkg/schema"
)

// compileCmd represents the compile command
var compileCmd = &cobra.Command{
	Use:   "compile <schema>",
	Short: "Compile a schema and print its layout",
	Long: `Compile a schema file and print each field's bit width, bit offset and
byte offset, plus the total record size.

Example:
  bitrec compile header.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := schema.LoadFile(args[0])
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FIELD\tKIND\tBITS\tBIT OFFSET\tBYTE OFFSET\tBYTE SIZE")
		for _, f := range s.Fields() {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\n",
				f.Name, f.Kind, f.BitWidth, f.BitOffset, f.ByteOffset, f.ByteSize)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\ntotal: %d bits, %d bytes\n", s.TotalBits(), s.TotalBytes())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)
}
