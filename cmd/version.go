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

	"github.com/gostor/gosg/pkg/version"
	"github.com/spf13/cobra"
	"golang.org/x/net/context"
)

func newVersionCommand(opts *cliOptions) *cobra.Command {
	var server bool
	var cmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of gosg",
		Long:  `All software has versions. This is gosg's`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := NoArgs(cmd, args); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Gosg %s -- HEAD\n", version.VERSION)
			if !server {
				return nil
			}
			cli, err := opts.client()
			if err != nil {
				return err
			}
			v, err := cli.ServerVersion(context.Background())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Daemon %s\n", v.Version)
			return nil
		},
	}
	cmd.Flags().BoolVar(&server, "server", false, "Also ask the daemon for its version")
	return cmd
}
