package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bitrec/bitrec/pkg/codec"
	"github.com/bitrec/bitrec/pkg/schema"
	"github.com/bitrec/bitrec/pkg/stream"
)

var decodeAll bool

// decodeCmd represents the decode command
var decodeCmd = &cobra.Command{
	Use:   "decode <schema> <file>",
	Short: "Decode binary records and print their fields",
	Long: `Read one record from a file and print every field's value in declaration
order. With --all, decode every record in the file.

Examples:
  bitrec decode header.json header.bin
  bitrec decode frame.yaml frames.log --all`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := schema.LoadFile(args[0])
		if err != nil {
			return err
		}

		reader, err := stream.NewLogReader(s, stream.LogReaderConfig{FilePath: args[1]})
		if err != nil {
			return fmt.Errorf("failed to open record file: %w", err)
		}
		defer reader.Close()

		out := cmd.OutOrStdout()
		if !decodeAll {
			rec, err := reader.ReadNext()
			if err != nil {
				if err == io.EOF {
					return fmt.Errorf("failed to read record: %w", codec.ErrTruncatedInput)
				}
				return fmt.Errorf("failed to read record: %w", err)
			}
			return printRecord(out, rec)
		}

		n := 0
		err = reader.ForEach(func(rec *codec.Record) error {
			if n > 0 {
				fmt.Fprintln(out)
			}
			n++
			fmt.Fprintf(out, "record %d (offset %d)\n", n-1, reader.Offset()-int64(rec.Size()))
			return printRecord(out, rec)
		})
		if err != nil {
			return fmt.Errorf("failed to read record %d: %w", n, err)
		}
		return nil
	},
}

// printRecord prints every field of one record in declaration order.
func printRecord(out io.Writer, rec *codec.Record) error {
	for _, f := range rec.Schema().Fields() {
		switch f.Kind {
		case schema.Blob:
			data, err := rec.GetBytes(f.Name)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: % x\n", f.Name, data)
		case schema.FixedI32:
			v, err := rec.GetInt(f.Name)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %d\n", f.Name, v)
		default:
			v, err := rec.GetUint(f.Name)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %#x\n", f.Name, v)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().BoolVar(&decodeAll, "all", false, "Decode every record in the file")
}
