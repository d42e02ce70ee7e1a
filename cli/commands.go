package cli

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/forestrie/go-merklekv/integrity"
	"github.com/forestrie/go-merklekv/leaf"
	"github.com/spf13/cobra"
)

func writeJSON(w io.Writer, v any) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}

// ReadRecords reads a JSON array of {"key": ..., "value": ...} objects. The
// array order is the commitment order.
func ReadRecords(file string) ([]leaf.Record, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var records []leaf.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%s: %v", file, err)
	}
	return records, nil
}

func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file and a signing key.",
		Long: `Create a configuration file and a P-256 signing key for the anchor.

Existing files are not overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			hash, _ := cmd.Flags().GetString("hash")
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
			file := filepath.Join(dir, DefaultConfigFile)
			if _, err := os.Stat(file); err == nil {
				return fmt.Errorf("%s already exists", file)
			}

			conf := DefaultConfig()
			conf.Hash = hash
			if err := conf.Validate(); err != nil {
				return err
			}
			if err := conf.Save(file); err != nil {
				return err
			}
			if _, err := GenerateSigningKey(conf.ResolvePath(conf.SigningKeyPath)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", file)
			return nil
		},
	}
	cmd.Flags().StringP("dir", "d", ".", "Location of directory for storing generated files")
	cmd.Flags().String("hash", "sha256", "Merkle hash algorithm: sha256, sha3-256, blake3 or blake256")
	return cmd
}

func NewCommitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "commit <records.json>",
		Short: "Commit records, upload them and anchor the root.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := ReadRecords(args[0])
			if err != nil {
				return err
			}
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := app.Commit(cmd.Context(), records); err != nil {
				return err
			}
			cp, err := app.Anchor.Current(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), cp)
		},
	}
}

func NewRetryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Complete a commit whose upload or publish failed.",
		Long: `Complete a commit whose upload or publish failed.

Only the failed phase is repeated, records already uploaded are not written
again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := app.Retry(cmd.Context()); err != nil {
				return err
			}
			cp, err := app.Anchor.Current(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), cp)
		},
	}
}

func NewQueryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "query <key>",
		Short: "Read a value from the store and verify it against the anchor.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.Protocol.QueryAndVerify(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
}

func NewProofCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proof <key>",
		Short: "Print the inclusion proof for a committed key.",
		Long: `Print the inclusion proof for a committed key.

The json format prints the full proof response, which the verify command
accepts. The cbor format prints the hex encoded CBOR proof alone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			resp, err := app.Protocol.Proof(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			switch format {
			case "json":
				return writeJSON(cmd.OutOrStdout(), resp)
			case "cbor":
				data, err := resp.Proof.MarshalCBOR()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(data))
				return nil
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}
	cmd.Flags().String("format", "json", "Output format, json or cbor")
	return cmd
}

func NewVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <key> <value>",
		Short: "Verify a value with a proof file against the anchored root.",
		Long: `Verify a value with a proof file against the anchored root.

Only the anchor is trusted. The proof file is the json output of the proof
command and may come from anywhere.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			proofFile, _ := cmd.Flags().GetString("proof")
			data, err := os.ReadFile(proofFile)
			if err != nil {
				return err
			}
			resp, err := integrity.DecodeProofResponse(data)
			if err != nil {
				return err
			}
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			cp, err := app.Anchor.Current(cmd.Context())
			if err != nil {
				return err
			}
			ok, err := integrity.VerifyRecord(args[0], args[1], resp, cp)
			if err != nil {
				return err
			}
			root, _ := cp.RootDigest()
			return writeJSON(cmd.OutOrStdout(), integrity.QueryResult{
				Key: args[0], Value: args[1], Found: true, Verified: ok,
				Index: resp.Index, Root: root, CommitmentID: cp.CommitmentID,
			})
		},
	}
	cmd.Flags().StringP("proof", "p", "", "Proof file written by the proof command")
	_ = cmd.MarkFlagRequired("proof")
	return cmd
}

func NewTamperCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tamper <key> <value>",
		Short: "Overwrite a value directly in the store, bypassing commit.",
		Long: `Overwrite a value directly in the store, bypassing commit.

This stands in for a malicious store operator. A later query of the key
reports the new value as not verified.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.Store.Put(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			app.Log.Infof("tampered with %q", args[0])
			return nil
		},
	}
}

func NewHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List every anchored checkpoint, verifying each signature.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			history, err := app.Anchor.History(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), history)
		},
	}
}

func NewVersionCommand(appName string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of " + appName + ".",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), appName+" v"+Version)
		},
	}
}
