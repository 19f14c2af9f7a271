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

	"github.com/gostor/gosg/pkg/api/client"
	"github.com/gostor/gosg/pkg/config"
	"github.com/gostor/gosg/pkg/passthru"
	"github.com/gostor/gosg/pkg/version"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// cliOptions are the flags every gosg command shares, completed from the
// config file once the command line is parsed.
type cliOptions struct {
	host      string
	logLevel  string
	configDir string
	cfg       *config.Config
	// open connects local sessions, swapped in tests.
	open passthru.Opener
}

func NewCommand() *cobra.Command {
	return newCommand(&cliOptions{open: passthru.OpenSG})
}

func newCommand(opts *cliOptions) *cobra.Command {
	var cmd = &cobra.Command{
		Use:           "gosg",
		Short:         "Gosg passes SCSI commands thru to Linux sg devices",
		Long:          `Gosg speaks arbitrary SCSI commands to a device thru the Linux SG_IO pass thru,
either directly or by way of a gosg daemon holding the device open.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.complete()
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), cmd.UsageString())
		},
	}
	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.host, "host", "H", "", "Daemon socket to listen on or connect to, PROTO://ADDR")
	flags.StringVar(&opts.logLevel, "log", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.configDir, "config", "", "Location of the config directory")

	cmd.AddCommand(
		newDaemonCommand(opts),
		newSessionCommand(opts),
		newExecCommand(opts),
		newInquiryCommand(opts),
		newFlashCommand(opts),
		newDecodeCommand(opts),
		newVersionCommand(opts),
	)
	return cmd
}

// complete loads the config file and fills in the flags left unset.
func (o *cliOptions) complete() error {
	dir := o.configDir
	if dir == "" {
		dir = config.ConfigDir()
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	o.cfg = cfg
	if o.host == "" {
		o.host = cfg.Host
	}
	if o.logLevel == "" {
		o.logLevel = cfg.LogLevel
	}
	return setLogLevel(o.logLevel)
}

func (o *cliOptions) client() (*client.Client, error) {
	return client.NewClient(o.host, version.VERSION, nil, nil)
}

// openLocal opens device in this process with the configured sense length
// and timeout.
func (o *cliOptions) openLocal(device string) (*passthru.Session, error) {
	if device == "" {
		device = o.cfg.Device
	}
	if device == "" {
		return nil, fmt.Errorf("no device given and none configured")
	}
	sp := passthru.NewSession()
	if _, err := sp.OpenWith(device, o.open); err != nil {
		return nil, err
	}
	sp.SetSense(make([]byte, o.cfg.SenseLength))
	sp.SetTimeout(o.cfg.TimeoutSeconds, 0)
	return sp, nil
}

func setLogLevel(level string) error {
	switch level {
	case "info", "":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "panic", "fatal", "error":
		log.SetLevel(log.ErrorLevel)
	default:
		return fmt.Errorf("unknown log level: %v", level)
	}
	return nil
}

func printStatus(w io.Writer, st passthru.Status) {
	fmt.Fprintf(w, "status %#08x: %v\n", uint32(st), st)
}

// NoArgs validate args and returns an error if there are any args
func NoArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}

	if cmd.HasSubCommands() {
		return fmt.Errorf("\n" + strings.TrimRight(cmd.UsageString(), "\n"))
	}

	return fmt.Errorf(
		"\"%s\" accepts no argument(s).\n",
		cmd.CommandPath(),
	)
}
