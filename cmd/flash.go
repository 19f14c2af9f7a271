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
	"io/ioutil"

	"github.com/gostor/gosg/pkg/flash"
	"github.com/spf13/cobra"
)

func newFlashCommand(opts *cliOptions) *cobra.Command {
	var yes bool
	var cmd = &cobra.Command{
		Use:   "flash DEVICE FILE",
		Short: "Flash a firmware image to a MATSHITA drive",
		Long: `Flash a firmware image to a MATSHITA drive with the vendor's write buffer
commands. Nothing is written unless --yes confirms the selected device.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := ioutil.ReadFile(args[1])
			if err != nil {
				return err
			}
			if err := flash.Validate(image); err != nil {
				return err
			}

			sp, err := opts.openLocal(args[0])
			if err != nil {
				return err
			}
			defer sp.Close()
			sp.SetTimeout(flash.TimeoutSeconds, 0)

			id, err := flash.Identify(sp)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Selected device: %s\n", id)
			if !yes {
				fmt.Fprintln(out, "Not confirmed with --yes, exiting")
				return nil
			}
			if err := flash.Write(sp, image); err != nil {
				return err
			}
			fmt.Fprintln(out, "Finished")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the flash")
	return cmd
}
