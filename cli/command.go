// Package cli builds the merklekv command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/spf13/cobra"
)

type cobraCommand interface {
	Build() *cobra.Command
}

type rootCommand struct {
	use   string
	short string
	long  string
}

var _ cobraCommand = (*rootCommand)(nil)

// NewRootCommand constructs the root command. Subcommands are added by the
// caller.
func NewRootCommand(use, short, long string) *cobra.Command {
	rootCmd := &rootCommand{
		use:   use,
		short: short,
		long:  long,
	}
	return rootCmd.Build()
}

func (rootCmd *rootCommand) Build() *cobra.Command {
	cmd := cobra.Command{
		Use:           rootCmd.use,
		Short:         rootCmd.short,
		Long:          rootCmd.long,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringP("config", "c", DefaultConfigFile, "Path to the configuration file")
	cmd.PersistentFlags().String("log-level", "", "Override the configured log level")
	return &cmd
}

// ExecuteRoot runs the command tree, flushes the logger and exits non zero on
// error.
func ExecuteRoot(rootCmd *cobra.Command) {
	err := rootCmd.Execute()
	logger.OnExit()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(-1)
	}
}

// NewMerkleKVCommand returns the root command with every subcommand added.
func NewMerkleKVCommand() *cobra.Command {
	root := NewRootCommand("merklekv",
		"Commit key/value records to a merkle tree and verify them.",
		`merklekv commits an ordered set of key/value records to a binary merkle
tree, uploads the records to an untrusted store and anchors the root in a
signed append only log. Any value read back from the store can then be
verified against the anchored root.`)
	root.AddCommand(
		NewInitCommand(),
		NewCommitCommand(),
		NewRetryCommand(),
		NewQueryCommand(),
		NewProofCommand(),
		NewVerifyCommand(),
		NewTamperCommand(),
		NewHistoryCommand(),
		NewDemoCommand(),
		NewVersionCommand("merklekv"),
	)
	return root
}
