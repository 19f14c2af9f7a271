/*
Copyright 2016 The GoStor Authors All rights reserved.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gostor/gosg/pkg/api"
	"github.com/spf13/cobra"
	"golang.org/x/net/context"
)

func newSessionCommand(opts *cliOptions) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "session",
		Short: "Manage the sessions a daemon holds open",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), cmd.UsageString())
		},
	}
	cmd.AddCommand(
		newSessionOpenCmd(opts),
		newSessionCloseCmd(opts),
		newSessionListCmd(opts),
	)
	return cmd
}

func newSessionOpenCmd(opts *cliOptions) *cobra.Command {
	req := api.SessionOpenRequest{}
	var sense int
	var cmd = &cobra.Command{
		Use:   "open DEVICE",
		Short: "Open a device in the daemon and print the session id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				req.Device = args[0]
			}
			if req.Device == "" {
				req.Device = opts.cfg.Device
			}
			if cmd.Flags().Changed("sense") {
				req.SenseLength = &sense
			}
			cli, err := opts.client()
			if err != nil {
				return err
			}
			info, err := cli.SessionOpen(context.Background(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), info.ID)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&sense, "sense", 0, "Sense bytes to copy in, the daemon default if unset")
	flags.Int32Var(&req.TimeoutSeconds, "timeout", 0, "Seconds before a command times out, 0 for the daemon default")
	return cmd
}

func newSessionCloseCmd(opts *cliOptions) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "close ID [ID...]",
		Short: "Close sessions in the daemon",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := opts.client()
			if err != nil {
				return err
			}
			var errs []string
			for _, id := range args {
				if err := cli.SessionClose(context.Background(), id); err != nil {
					errs = append(errs, err.Error())
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			if len(errs) > 0 {
				return fmt.Errorf("%d of %d sessions failed to close:\n%s", len(errs), len(args), strings.Join(errs, "\n"))
			}
			return nil
		},
	}
	return cmd
}

func newSessionListCmd(opts *cliOptions) *cobra.Command {
	lopts := api.SessionListOptions{}
	var cmd = &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the sessions of the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := NoArgs(cmd, args); err != nil {
				return err
			}
			cli, err := opts.client()
			if err != nil {
				return err
			}
			results, err := cli.SessionList(context.Background(), lopts)
			if err != nil {
				return err
			}
			printSessions(cmd.OutOrStdout(), results)
			return nil
		},
	}
	cmd.Flags().StringVar(&lopts.Device, "device", "", "Only list sessions of this device")
	return cmd
}

func printSessions(out io.Writer, sessions []api.SessionInfo) {
	w := tabwriter.NewWriter(out, 20, 1, 3, ' ', 0)
	fmt.Fprintln(w, "SESSION ID\tDEVICE\tCOMMANDS\tSENSE\tTIMEOUT\tOPENED")
	for _, s := range sessions {
		timeout := time.Duration(s.TimeoutSeconds) * time.Second
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%v\t%s\n", s.ID, s.Device, s.Commands, s.SenseLength, timeout, s.Opened.Format(time.RFC3339))
	}
	w.Flush()
}
