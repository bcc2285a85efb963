// Package main: command line client of the SDK.
//
// ovl signs and submits batches, creates accounts and reads submissions using the same configuration as the
// services (see cmd/conf.json).
package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	overledger "github.com/architectjyothi/overledger-sdk-go"
	"github.com/architectjyothi/overledger-sdk-go/lib/boot"
	"github.com/architectjyothi/overledger-sdk-go/lib/config"
	"github.com/architectjyothi/overledger-sdk-go/lib/dlt"
	"github.com/architectjyothi/overledger-sdk-go/lib/gateway"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRoot().ExecuteContext(ctx)

	stop()

	if err != nil {
		log.Error().Err(err).Msg("ovl failed")
		os.Exit(1)
	}
}

// client holds what the subcommands share.
type client struct {
	confPath string
	conf     config.ServiceConfig
	sdk      *overledger.SDK
}

func (c *client) load(cmd *cobra.Command, args []string) error {
	conf, err := config.ExtractConfiguration(c.confPath)
	if err != nil {
		return err
	}

	c.conf = conf

	boot.Logger(zerolog.WarnLevel, true)

	c.sdk, err = boot.SDK(conf, nil)

	return err
}

func newRoot() *cobra.Command {
	c := &client{}

	root := &cobra.Command{
		Use:               "ovl",
		Short:             "Multi-ledger transaction client",
		PersistentPreRunE: c.load,
		SilenceUsage:      true,
	}

	root.PersistentFlags().StringVarP(&c.confPath, "conf", "c", "", "configuration json file")

	root.AddCommand(
		c.newDlts(),
		c.newAccount(),
		c.newBalance(),
		c.newSign(),
		c.newSend(),
		c.newTx(),
	)

	return root
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

// printResponse writes the gateway reply data as is.
func printResponse(w io.Writer, r *gateway.Response) error {
	if r == nil {
		return nil
	}

	_, err := w.Write(append(r.Data, '\n'))

	return err
}

// readBatch decodes the sign requests in file, or stdin when file is "-".
func readBatch(cmd *cobra.Command, file string) ([]overledger.SignRequest, error) {
	in := cmd.InOrStdin()

	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		in = f
	}

	var reqs []overledger.SignRequest
	if err := json.NewDecoder(in).Decode(&reqs); err != nil {
		return nil, errors.Wrap(err, "cannot decode batch")
	}

	return reqs, nil
}

func (c *client) newDlts() *cobra.Command {
	return &cobra.Command{
		Use:   "dlts",
		Short: "List the configured and the supported DLTs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), map[string][]string{
				"configured": c.sdk.Dlts(),
				"supported":  dlt.Supported(),
			})
		},
	}
}

func (c *client) newAccount() *cobra.Command {
	return &cobra.Command{
		Use:   "account <dlt>",
		Short: "Create a keypair for a DLT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.sdk.Dlt(args[0])
			if err != nil {
				return err
			}

			acc, err := a.CreateAccount()
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), acc)
		},
	}
}

func (c *client) newBalance() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <dlt> [address]",
		Short: "Balance of an address, the configured account when omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.sdk.Dlt(args[0])
			if err != nil {
				return err
			}

			var addr string
			if len(args) == 2 {
				addr = args[1]
			}

			b, err := a.GetBalance(cmd.Context(), addr)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), b)
		},
	}
}

func (c *client) newSign() *cobra.Command {
	var (
		file string
		each bool
	)

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a batch without submitting it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reqs, err := readBatch(cmd, file)
			if err != nil {
				return err
			}

			if each {
				res, err := c.sdk.SignEach(cmd.Context(), reqs)
				if err != nil {
					return err
				}

				return printJSON(cmd.OutOrStdout(), res)
			}

			signed, err := c.sdk.Sign(cmd.Context(), reqs)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), signed)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "json batch of sign requests")
	cmd.Flags().BoolVar(&each, "each", false, "sign every entry independently")

	return cmd
}

func (c *client) newSend() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Sign a batch and submit it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reqs, err := readBatch(cmd, file)
			if err != nil {
				return err
			}

			r, err := c.sdk.SignAndSend(cmd.Context(), reqs)
			if err != nil {
				return err
			}

			return printResponse(cmd.OutOrStdout(), r)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "json batch of sign requests")

	return cmd
}

func (c *client) newTx() *cobra.Command {
	return &cobra.Command{
		Use:   "tx [overledgerTransactionId]",
		Short: "Read a submission, or every submission of the mapp when the id is omitted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				r   *gateway.Response
				err error
			)

			ctx := cmd.Context()

			if len(args) == 1 {
				r, err = c.sdk.ReadByTransactionID(ctx, args[0])
			} else {
				r, err = c.sdk.ReadTransactionsByMappID(ctx)
			}

			if err != nil {
				return err
			}

			return printResponse(cmd.OutOrStdout(), r)
		},
	}
}
