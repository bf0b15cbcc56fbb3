package cmd

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bitrec/bitrec/pkg/codec"
	"github.com/bitrec/bitrec/pkg/schema"
	"github.com/bitrec/bitrec/pkg/stream"
)

var (
	encodeSets   []string
	encodeOut    string
	encodeAppend bool
)

// encodeCmd represents the encode command
var encodeCmd = &cobra.Command{
	Use:   "encode <schema>",
	Short: "Pack field values into a binary record",
	Long: `Pack field values into one binary record. Integer values accept any base
strconv understands (26, 0x1a, 0b11010); blob fields take hex bytes.
Fields left unset stay zero.

Examples:
  bitrec encode header.json --set version=1 --set magic=0x123456789abcde -o header.bin
  bitrec encode frame.yaml --set payload=deadbeef`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := schema.LoadFile(args[0])
		if err != nil {
			return err
		}

		rec := codec.NewRecord(s)
		for _, assignment := range encodeSets {
			if err := applyAssignment(rec, assignment); err != nil {
				return err
			}
		}

		if encodeOut == "" {
			if err := rec.Dump(cmd.OutOrStdout()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		}

		if encodeAppend {
			w, err := stream.NewLogWriter(s, stream.LogWriterConfig{FilePath: encodeOut})
			if err != nil {
				return fmt.Errorf("failed to open record log: %w", err)
			}
			off, err := w.Append(rec)
			if err != nil {
				w.Close()
				return fmt.Errorf("failed to append record: %w", err)
			}
			if err := w.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "appended %d bytes to %s at offset %d\n", rec.Size(), encodeOut, off)
			return nil
		}

		out, err := os.Create(encodeOut)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer out.Close()
		if _, err := rec.WriteTo(out); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes to %s\n", rec.Size(), encodeOut)
		return nil
	},
}

// applyAssignment parses one name=value pair and stores it in the record.
func applyAssignment(rec *codec.Record, assignment string) error {
	name, value, found := strings.Cut(assignment, "=")
	if !found {
		return fmt.Errorf("invalid assignment %q, want name=value", assignment)
	}

	f, ok := rec.Schema().Field(name)
	if !ok {
		return fmt.Errorf("field %q: %w", name, codec.ErrFieldNotFound)
	}

	if f.Kind == schema.Blob {
		data, err := hex.DecodeString(value)
		if err != nil {
			return fmt.Errorf("field %q: invalid hex value %q: %w", name, value, err)
		}
		return rec.SetBytes(name, data)
	}

	if u, err := strconv.ParseUint(value, 0, 64); err == nil {
		return rec.SetUint(name, u)
	}
	i, err := strconv.ParseInt(value, 0, 64)
	if err != nil {
		return fmt.Errorf("field %q: invalid integer %q", name, value)
	}
	return rec.SetInt(name, i)
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().StringArrayVar(&encodeSets, "set", nil, "Field assignment name=value (repeatable)")
	encodeCmd.Flags().StringVarP(&encodeOut, "out", "o", "", "Output file (default: hex dump to stdout)")
	encodeCmd.Flags().BoolVar(&encodeAppend, "append", false, "Append to the output file instead of overwriting it")
}
