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
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gostor/gosg/pkg/apiserver"
	"github.com/gostor/gosg/pkg/service"
	"github.com/gostor/gosg/pkg/version"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type daemonOptions struct {
	socketGroup string
	logRequests bool
}

func newDaemonCommand(opts *cliOptions) *cobra.Command {
	var dopts daemonOptions
	var cmd = &cobra.Command{
		Use:   "daemon",
		Short: "Setup a daemon",
		Long:  `Setup the gosg daemon, which holds sg devices open for its clients`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := NoArgs(cmd, args); err != nil {
				return err
			}
			return runDaemon(opts, dopts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&dopts.socketGroup, "group", "", "Numeric group id owning a unix socket")
	flags.BoolVar(&dopts.logRequests, "log-requests", false, "Log every API request")
	return cmd
}

// parseHosts splits PROTO://ADDR lists into listener addresses.
func parseHosts(hosts []string) ([]apiserver.Addr, error) {
	var addrs []apiserver.Addr
	for _, protoAddr := range hosts {
		protoAddrParts := strings.SplitN(protoAddr, "://", 2)
		if len(protoAddrParts) != 2 {
			return nil, fmt.Errorf("bad format %s, expected PROTO://ADDR", protoAddr)
		}
		addrs = append(addrs, apiserver.Addr{Proto: protoAddrParts[0], Addr: protoAddrParts[1]})
	}
	return addrs, nil
}

func runDaemon(opts *cliOptions, dopts daemonOptions) error {
	addrs, err := parseHosts(strings.Split(opts.host, ","))
	if err != nil {
		log.Error(err)
		return err
	}

	sessions := service.NewSessionService(opts.cfg, opts.open)
	defer sessions.Shutdown()

	serverConfig := &apiserver.Config{
		Logging:     dopts.logRequests,
		Version:     version.VERSION,
		SocketGroup: dopts.socketGroup,
		Addrs:       addrs,
	}
	s, err := apiserver.New(serverConfig)
	if err != nil {
		log.Error(err)
		return err
	}
	s.InitRouters(sessions)
	// The serve API routine never exits unless an error occurs
	// We need to start it as a goroutine and wait on it so
	// daemon doesn't exit
	serveAPIWait := make(chan error)
	go s.Wait(serveAPIWait)

	stopAll := make(chan os.Signal, 1)
	signal.Notify(stopAll, syscall.SIGINT, syscall.SIGTERM)

	select {
	case errAPI := <-serveAPIWait:
		if errAPI != nil {
			log.Warnf("Shutting down due to ServeAPI error: %v", errAPI)
		}
	case sig := <-stopAll:
		log.Infof("Shutting down on %v", sig)
	}
	s.Close()
	return nil
}
