package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bitrec/bitrec/pkg/codec"
	"github.com/bitrec/bitrec/pkg/schema"
)

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump <schema> <file>",
	Short: "Hex dump one record from a file",
	Long: `Read exactly one record from a file and print its raw bytes as hex.

Example:
  bitrec dump header.json header.bin`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := schema.LoadFile(args[0])
		if err != nil {
			return err
		}

		in, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("failed to open record file: %w", err)
		}
		defer in.Close()

		rec := codec.NewRecord(s)
		if _, err := rec.ReadFrom(in); err != nil {
			return fmt.Errorf("failed to read record: %w", err)
		}

		if err := rec.Dump(cmd.OutOrStdout()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}
