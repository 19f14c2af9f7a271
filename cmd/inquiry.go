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

	"github.com/gostor/gosg/pkg/api"
	"github.com/gostor/gosg/pkg/passthru"
	"github.com/gostor/gosg/pkg/scsi"
	"github.com/spf13/cobra"
	"golang.org/x/net/context"
)

func newInquiryCommand(opts *cliOptions) *cobra.Command {
	var session string
	var cmd = &cobra.Command{
		Use:   "inquiry [DEVICE]",
		Short: "Ask a device who it is",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				st  passthru.Status
				buf []byte
				err error
			)
			if session != "" {
				st, buf, err = inquiryRemote(opts, session)
			} else {
				device := ""
				if len(args) > 0 {
					device = args[0]
				}
				st, buf, err = inquiryLocal(opts, device)
			}
			if err != nil {
				return err
			}
			return printInquiry(cmd.OutOrStdout(), st, buf)
		},
	}
	cmd.Flags().StringVar(&session, "session", "", "Ask thru a daemon session instead")
	return cmd
}

func inquiryLocal(opts *cliOptions, device string) (passthru.Status, []byte, error) {
	sp, err := opts.openLocal(device)
	if err != nil {
		return 0, nil, err
	}
	defer sp.Close()

	buf := make([]byte, scsi.InquiryReplyLength)
	sp.SetCommand(scsi.InquiryCDB(scsi.InquiryReplyLength))
	st := sp.Read(buf)
	return st, buf[:clamp(sp.DataEnough(), len(buf))], nil
}

func inquiryRemote(opts *cliOptions, session string) (passthru.Status, []byte, error) {
	cli, err := opts.client()
	if err != nil {
		return 0, nil, err
	}
	resp, err := cli.SessionCommand(context.Background(), session, api.CommandRequest{
		CDB:       scsi.InquiryCDB(scsi.InquiryReplyLength),
		Direction: api.DataRead,
		Length:    scsi.InquiryReplyLength,
	})
	if err != nil {
		return 0, nil, err
	}
	return passthru.Status(resp.Status), resp.Data, nil
}

func clamp(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}

func printInquiry(out io.Writer, st passthru.Status, buf []byte) error {
	if st.Failed() {
		printStatus(out, st)
		return fmt.Errorf("inquiry failed")
	}
	inq, err := scsi.ParseInquiry(buf)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Vendor:   %s\n", inq.Vendor)
	fmt.Fprintf(out, "Product:  %s\n", inq.Product)
	fmt.Fprintf(out, "Revision: %s\n", inq.Revision)
	fmt.Fprintf(out, "Type:     %v\n", inq.DeviceType)
	if inq.Removable {
		fmt.Fprintln(out, "Removable")
	}
	return nil
}
