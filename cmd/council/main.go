// Copyright 2025 Kadir Pekel
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

// Command council runs the council multi-agent runtime.
//
// Usage:
//
//	council serve --config council.yaml
//	council validate --config council.yaml
//	council version
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/councilrun/council"
	"github.com/councilrun/council/pkg/config"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Serve    ServeCmd    `cmd:"" help:"Start the council MCP/A2A server."`
	Validate ValidateCmd `cmd:"" help:"Validate a configuration file."`
	Approve  ApproveCmd  `cmd:"" help:"Review pending governance requests on a running server."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFormat string `help:"Log format (simple, verbose)." default:"simple"`
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(council.GetVersion().String())
	return nil
}

func main() {
	_ = config.LoadEnvFiles()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("council"),
		kong.Description("Council runtime - multi-agent orchestration over MCP/A2A"),
		kong.UsageOnError(),
	)

	if err := initLogger(cli.LogLevel, cli.LogFormat); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
