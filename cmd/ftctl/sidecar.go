package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ft-systems/frankentorch/raptorq"
)

// newSidecarCmd groups the durability-sidecar subcommands.
func newSidecarCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sidecar",
		Short: "Generate a RaptorQ-style durability sidecar for a payload",
	}
	cmd.AddCommand(newSidecarGenerateCmd(opts))
	return cmd
}

func newSidecarGenerateCmd(opts *rootOptions) *cobra.Command {
	var inputPath string
	var repairSymbolCount int

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a durability sidecar and decode proof for a payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readAll(inputPath)
			if err != nil {
				return fmt.Errorf("ftctl sidecar generate: %w", err)
			}

			n := repairSymbolCount
			if n <= 0 {
				n = opts.config.RepairSymbolCount
			}

			sidecar, proof, err := raptorq.GenerateRaptorQSidecarWithLogger(payload, n, opts.logger)
			if err != nil {
				return fmt.Errorf("ftctl sidecar generate: %w", err)
			}

			fmt.Printf("source_hash=%s symbol_size=%d source_symbols=%d repair_symbols=%d seed=%d object_id=%d:%d\n",
				sidecar.SourceHash, sidecar.SymbolSize, sidecar.SourceSymbolCount,
				sidecar.RepairSymbolCount, sidecar.Seed, sidecar.ObjectIDHigh, sidecar.ObjectIDLow)
			fmt.Printf("proof: received_symbols=%d recovered_bytes=%d proof_hash=%s\n",
				proof.ReceivedSymbolCount, proof.RecoveredBytes, proof.ProofHashHex)
			return nil
		},
	}
	cmd.Flags().StringVar(&inputPath, "in", "", "payload file to protect (defaults to stdin)")
	cmd.Flags().IntVar(&repairSymbolCount, "repair-symbols", 0, "number of repair shards (defaults to the active config's repair_symbol_count)")
	return cmd
}
