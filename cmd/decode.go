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
	"strconv"

	"github.com/gostor/gosg/pkg/api"
	"github.com/gostor/gosg/pkg/passthru"
	"github.com/gostor/gosg/pkg/scsi"
	"github.com/gostor/gosg/pkg/service"
	"github.com/spf13/cobra"
	"golang.org/x/net/context"
)

func newDecodeCommand(opts *cliOptions) *cobra.Command {
	var daemon bool
	var cmd = &cobra.Command{
		Use:   "decode VALUE [VALUE...]",
		Short: "Take status integers apart",
		Long:  `Take status integers apart. Values may be decimal, 0x hex or 0 octal.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				v, err := strconv.ParseInt(arg, 0, 64)
				if err != nil {
					return fmt.Errorf("bad parameter: status %q: %v", arg, err)
				}
				var info api.StatusInfo
				if daemon {
					cli, err := opts.client()
					if err != nil {
						return err
					}
					if info, err = cli.StatusInspect(context.Background(), v); err != nil {
						return err
					}
				} else {
					st, err := passthru.Decode(v)
					if err != nil {
						return err
					}
					info = service.Describe(st)
				}
				printStatusInfo(cmd.OutOrStdout(), info)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&daemon, "daemon", false, "Ask the daemon to decode")
	return cmd
}

func printStatusInfo(out io.Writer, info api.StatusInfo) {
	fmt.Fprintf(out, "%#08x: %s\n", uint32(info.Status), info.Description)
	if !info.Failed {
		fmt.Fprintf(out, "  shortfall %d\n", info.Shortfall)
		return
	}
	flags := []struct {
		name string
		set  bool
	}{
		{"data thru", info.DataThru},
		{"sense thru", info.SenseThru},
		{"residue", info.Residue},
		{"sense", info.Sense},
		{"deferred", info.Deferred},
	}
	for _, f := range flags {
		if f.set {
			fmt.Fprintf(out, "  %s\n", f.name)
		}
	}
	if info.Sense {
		fmt.Fprintf(out, "  sense key %#x %s\n", info.SenseKey, scsi.SenseKeyName(info.SenseKey))
		asc := scsi.SCSISubError(uint16(info.ASC)<<8 | uint16(info.ASCQ))
		fmt.Fprintf(out, "  asc/ascq %02x/%02x %s\n", info.ASC, info.ASCQ, scsi.SubErrorName(info.SenseKey, asc))
	}
}
