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
	"encoding/hex"
	"fmt"
	"io"
	"io/ioutil"
	"math"

	"github.com/gostor/gosg/pkg/api"
	"github.com/gostor/gosg/pkg/passthru"
	"github.com/gostor/gosg/pkg/scsi"
	"github.com/gostor/gosg/pkg/service"
	"github.com/gostor/gosg/pkg/util"
	"github.com/spf13/cobra"
	"golang.org/x/net/context"
)

type execOptions struct {
	cdb       string
	read      int
	write     string
	device    string
	session   string
	sense     int
	timeout   int32
	out       string
	cdbBytes  []byte
	direction api.DataDirection
	data      []byte
}

func newExecCommand(opts *cliOptions) *cobra.Command {
	var eopts execOptions
	var cmd = &cobra.Command{
		Use:   "exec",
		Short: "Pass one command thru to a device",
		Long: `Pass one command thru to a device, opened here with --device or held by
the daemon with --session. With --read 0 the length comes from the CDB.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := NoArgs(cmd, args); err != nil {
				return err
			}
			flags := cmd.Flags()
			if err := eopts.complete(flags.Changed("read"), flags.Changed("sense"), flags.Changed("timeout")); err != nil {
				return err
			}
			if eopts.session != "" {
				return execRemote(cmd.OutOrStdout(), opts, eopts)
			}
			return execLocal(cmd.OutOrStdout(), opts, eopts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&eopts.cdb, "cdb", "", "Command bytes in hex, e.g. \"12 00 00 00 24 00\"")
	flags.IntVar(&eopts.read, "read", 0, "Bytes to read in")
	flags.StringVar(&eopts.write, "write", "", "File of bytes to write out")
	flags.StringVar(&eopts.device, "device", "", "Device to open in this process")
	flags.StringVar(&eopts.session, "session", "", "Daemon session to pass thru")
	flags.IntVar(&eopts.sense, "sense", -1, "Sense bytes to copy in")
	flags.Int32Var(&eopts.timeout, "timeout", -1, "Seconds before the command times out")
	flags.StringVar(&eopts.out, "out", "", "Save the data read in to this file instead of dumping it")
	return cmd
}

// complete checks the flags so no value reaches a Session that it would
// refuse as fatal.
func (o *execOptions) complete(read, sense, timeout bool) error {
	cdb, err := util.ParseHexBytes(o.cdb)
	if err != nil {
		return err
	}
	if len(cdb) == 0 || len(cdb) > passthru.MaxCommand {
		return fmt.Errorf("bad parameter: cdb length %d is not in [1, %d]", len(cdb), passthru.MaxCommand)
	}
	o.cdbBytes = cdb

	if read && o.write != "" {
		return fmt.Errorf("bad parameter: --read and --write are exclusive")
	}
	if o.device != "" && o.session != "" {
		return fmt.Errorf("bad parameter: --device and --session are exclusive")
	}
	o.direction = api.DataNone
	switch {
	case read:
		o.direction = api.DataRead
		if o.read == 0 {
			n, ok := scsi.SCSICDBBufXLength(cdb)
			if !ok {
				return fmt.Errorf("bad parameter: no transfer length in cdb %x, give --read N", cdb)
			}
			o.read = int(n)
		}
		if o.read < 0 || o.read > service.MaxTransfer {
			return fmt.Errorf("bad parameter: read length %d is not in [0, %d]", o.read, service.MaxTransfer)
		}
	case o.write != "":
		o.direction = api.DataWrite
		if o.data, err = ioutil.ReadFile(o.write); err != nil {
			return err
		}
	}

	if sense && (o.sense < 0 || o.sense > passthru.MaxSense) {
		return fmt.Errorf("bad parameter: sense length %d is not in [0, %d]", o.sense, passthru.MaxSense)
	}
	if timeout && (o.timeout < 0 || o.timeout > math.MaxInt32/1000) {
		return fmt.Errorf("bad parameter: timeout %ds is out of range", o.timeout)
	}
	return nil
}

func execLocal(out io.Writer, opts *cliOptions, eopts execOptions) error {
	sp, err := opts.openLocal(eopts.device)
	if err != nil {
		return err
	}
	defer sp.Close()

	if eopts.sense >= 0 {
		sp.SetSense(make([]byte, eopts.sense))
	}
	if eopts.timeout >= 0 {
		sp.SetTimeout(eopts.timeout, 0)
	}
	sp.SetCommand(eopts.cdbBytes)

	var (
		st   passthru.Status
		data []byte
	)
	switch eopts.direction {
	case api.DataRead:
		buf := make([]byte, eopts.read)
		st = sp.Read(buf)
		if n := sp.DataEnough(); n >= 0 && n <= len(buf) {
			data = buf[:n]
		}
	case api.DataWrite:
		st = sp.Write(eopts.data)
	default:
		st = sp.Speak()
	}
	return printResult(out, st, sp.SenseBytes(), data, eopts.out)
}

func execRemote(out io.Writer, opts *cliOptions, eopts execOptions) error {
	cli, err := opts.client()
	if err != nil {
		return err
	}
	req := api.CommandRequest{
		CDB:       eopts.cdbBytes,
		Direction: eopts.direction,
		Data:      eopts.data,
		Length:    eopts.read,
	}
	if eopts.sense >= 0 {
		sense := eopts.sense
		req.SenseLength = &sense
	}
	if eopts.timeout >= 0 {
		req.TimeoutSeconds = eopts.timeout
	}
	resp, err := cli.SessionCommand(context.Background(), eopts.session, req)
	if err != nil {
		return err
	}
	return printResult(out, passthru.Status(resp.Status), resp.Sense, resp.Data, eopts.out)
}

func printResult(out io.Writer, st passthru.Status, sense, data []byte, file string) error {
	printStatus(out, st)
	if len(sense) > 0 {
		fmt.Fprintf(out, "sense % x\n", sense)
	}
	if len(data) == 0 {
		return nil
	}
	if file != "" {
		return ioutil.WriteFile(file, data, 0644)
	}
	fmt.Fprint(out, hex.Dump(data))
	return nil
}
