// Copyright © 2016 Sidharth Kshatriya
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile         string
	gGdbExecutable  string
	gVerboseFlag    bool
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "tgdb",
	Short: "tgdb mediates between a front end and a gdb --annotate=2 child process",
}

// Execute adds all child commands to the root command and runs it. It is
// called by main.main() exactly once.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().BoolVarP(&gVerboseFlag, "verbose", "v", false, "print more messages about what tgdb is doing")
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tgdb.yaml)")
	RootCmd.PersistentFlags().StringVar(&gGdbExecutable, "with-gdb", "", "the gdb executable to use (default is to assume gdb exists in $PATH)")
}

// initConfig reads a config file and environment variables, if set. It is
// grounded on the teacher's own initConfig (cmd/root.go), trimmed to this
// module's actual flag surface.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	viper.SetConfigName(".tgdb")
	viper.AddConfigPath("$HOME")
	viper.AutomaticEnv()
	viper.SetConfigType("yaml")

	viper.BindPFlag("with-gdb", RootCmd.PersistentFlags().Lookup("with-gdb"))
	viper.BindPFlag("verbose", RootCmd.PersistentFlags().Lookup("verbose"))

	viper.SetDefault("with-gdb", "gdb")

	viper.RegisterAlias("gdb_executable", "with-gdb")

	if err := viper.ReadInConfig(); err == nil {
		color.Yellow("tgdb: using config file: %v", viper.ConfigFileUsed())
	}
}
