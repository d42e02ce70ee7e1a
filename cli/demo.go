package cli

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-merklekv/anchor"
	"github.com/forestrie/go-merklekv/integrity"
	"github.com/forestrie/go-merklekv/leaf"
	"github.com/forestrie/go-merklekv/store"
	"github.com/spf13/cobra"
)

const Version = "0.1.0"

var demoRecords = []leaf.Record{
	{Key: "k1", Value: "a"},
	{Key: "k2", Value: "b"},
	{Key: "k3", Value: "c"},
}

// NewDemoCommand runs the commit, query, tamper, query sequence against an
// in-memory store and anchor. It needs no configuration.
func NewDemoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Commit three records in memory, tamper with one and query it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			if level == "" {
				level = "NOOP"
			}
			logger.New(level)
			log := logger.Sugar.WithServiceName("merklekv-demo")

			key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
			if err != nil {
				return err
			}
			signer, err := anchor.NewES256(key)
			if err != nil {
				return err
			}
			an, err := anchor.NewSignedAnchor(log, anchor.NewMemoryLog(), signer, &key.PublicKey, DefaultIssuer)
			if err != nil {
				return err
			}
			st := store.NewMemoryStore()
			p := integrity.NewProtocol(log, st, an)

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			root, err := p.Commit(ctx, demoRecords)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "committed %d records, root %s\n", len(demoRecords), root)

			query := func(key string) error {
				r, err := p.QueryAndVerify(ctx, key)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s = %q verified=%t\n", r.Key, r.Value, r.Verified)
				return nil
			}
			if err := query("k1"); err != nil {
				return err
			}
			if err := st.Put(ctx, "k1", "zzz"); err != nil {
				return err
			}
			fmt.Fprintln(out, "store overwrote k1")
			return query("k1")
		},
	}
}
